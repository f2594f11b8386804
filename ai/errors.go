package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResponse indicates the model returned output that could not be parsed.
	ErrInvalidResponse = errors.New("invalid model response")

	// ErrEmptyResponse indicates the model returned no choices.
	ErrEmptyResponse = errors.New("empty model response")
)

// EntryError describes one entry of a ranking reply that could not be decoded.
// Index is the entry's position in the reply.
type EntryError struct {
	Index int
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("ranked entry %d: %v", e.Index, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// RankEntriesError is returned by Rank alongside the entries that did decode
// when some entries of an otherwise well-formed reply did not. The call
// itself succeeded and should not be retried.
type RankEntriesError struct {
	Entries []*EntryError
}

func (e *RankEntriesError) Error() string {
	switch len(e.Entries) {
	case 0:
		return "ranked entries discarded"
	case 1:
		return "1 ranked entry discarded: " + e.Entries[0].Error()
	}
	return fmt.Sprintf("%d ranked entries discarded, first: %v", len(e.Entries), e.Entries[0])
}

func (e *RankEntriesError) Unwrap() []error {
	errs := make([]error, len(e.Entries))
	for i, entry := range e.Entries {
		errs[i] = entry
	}
	return errs
}
