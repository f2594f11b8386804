package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

// MatchRepository implements storage.MatchRepository for BadgerDB.
// Each save replaces the previous results of the same query.
type MatchRepository struct {
	backend *Backend
}

var _ storage.MatchRepository = (*MatchRepository)(nil)

// NewMatchRepository creates a new MatchRepository.
func NewMatchRepository(backend *Backend) *MatchRepository {
	return &MatchRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *MatchRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *MatchRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Save stores the ranked results for a query.
func (r *MatchRepository) Save(ctx context.Context, queryID string, results []core.MatchResult) error {
	if queryID == "" {
		return core.ErrEmptyID
	}
	value, err := storage.MarshalMatches(results)
	if err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeMatchKey(queryID), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetMatches returns the results last saved for a query.
func (r *MatchRepository) GetMatches(ctx context.Context, queryID string) ([]core.MatchResult, error) {
	var results []core.MatchResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMatchKey(queryID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			results, unmarshalErr = storage.UnmarshalMatches(val)
			return unmarshalErr
		})
	}, false)
	return results, err
}
