package badger

import (
	"fmt"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

// Key prefixes for different data types
const (
	candidatePrefix = "reccan:"
	projectPrefix   = "recpro:"
	matchPrefix     = "match:"
)

// recordPrefix returns the key prefix for records of a kind.
func recordPrefix(kind core.Kind) ([]byte, error) {
	switch kind {
	case core.KindCandidate:
		return []byte(candidatePrefix), nil
	case core.KindProject:
		return []byte(projectPrefix), nil
	}
	return nil, fmt.Errorf("%w: %q", storage.ErrInvalidKind, kind)
}

// makeRecordKey generates a key for a record by kind and ID.
// Format: prefix:id
func makeRecordKey(kind core.Kind, id string) ([]byte, error) {
	prefix, err := recordPrefix(kind)
	if err != nil {
		return nil, err
	}
	return append(prefix, id...), nil
}

// makeMatchKey generates a key for the results saved under a query ID.
func makeMatchKey(queryID string) []byte {
	return []byte(matchPrefix + queryID)
}
