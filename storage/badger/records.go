package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

// RecordRepository implements storage.RecordRepository for BadgerDB.
type RecordRepository struct {
	backend *Backend
}

var _ storage.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(backend *Backend) *RecordRepository {
	return &RecordRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *RecordRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *RecordRepository) FindSimilar(ctx context.Context, kind core.Kind, vector []float32, minSimilarity float32, limit int) ([]*storage.SearchResult, error) {
	return r.backend.FindSimilar(ctx, kind, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *RecordRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddRecords inserts or replaces records.
func (r *RecordRepository) AddRecords(ctx context.Context, records ...*storage.Record) ([]*storage.Record, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, record := range records {
			id := record.ID()
			if id == "" {
				return core.ErrEmptyID
			}
			key, err := makeRecordKey(record.Kind, id)
			if err != nil {
				return err
			}

			old, err := readRecord(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				record.InsertedAt = old.InsertedAt
			} else if record.InsertedAt.IsZero() {
				record.InsertedAt = now
			}
			record.UpdatedAt = now

			value, err := storage.MarshalRecord(record)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// GetRecord retrieves a single record by kind and ID.
func (r *RecordRepository) GetRecord(ctx context.Context, kind core.Kind, id string) (*storage.Record, error) {
	var result *storage.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key, err := makeRecordKey(kind, id)
		if err != nil {
			return err
		}
		result, err = readRecord(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetRecords retrieves multiple records, skipping missing ones.
func (r *RecordRepository) GetRecords(ctx context.Context, kind core.Kind, ids ...string) ([]*storage.Record, error) {
	var result []*storage.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key, err := makeRecordKey(kind, id)
			if err != nil {
				return err
			}
			record, err := readRecord(tx, key)
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListRecords returns every record of a kind in key order.
func (r *RecordRepository) ListRecords(ctx context.Context, kind core.Kind) ([]*storage.Record, error) {
	prefix, err := recordPrefix(kind)
	if err != nil {
		return nil, err
	}

	result := []*storage.Record{}
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalRecord(val)
				if err != nil {
					return err
				}
				result = append(result, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return result, err
}

// DeleteRecords removes records by ID.
func (r *RecordRepository) DeleteRecords(ctx context.Context, kind core.Kind, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key, err := makeRecordKey(kind, id)
			if err != nil {
				return err
			}
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return storage.ErrNotFound
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readRecord reads a record from the transaction. Returns nil, nil if absent.
func readRecord(tx *badger.Txn, key []byte) (*storage.Record, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *storage.Record
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalRecord(val)
		return unmarshalErr
	})
	return record, err
}
