package model

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Sentinel errors returned by the reconciliation core. Callers test for them
// with errors.Is; any other error from the core is a store failure.
var (
	// ErrNotFound: no extracted record for the submission, no stored result,
	// or no canonical land record satisfying the six-field join.
	ErrNotFound = eris.New("not found")
	// ErrIncompleteInput: one or more land-identity fields are blank.
	ErrIncompleteInput = eris.New("incomplete input")
	// ErrCoordinatesUnavailable: the land record has no stored coordinates.
	ErrCoordinatesUnavailable = eris.New("coordinates unavailable")
)

// IsStoreFailure reports whether err is neither nil nor one of the domain
// sentinels, i.e. it came from persistence or lookup I/O.
func IsStoreFailure(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrIncompleteInput) &&
		!errors.Is(err, ErrCoordinatesUnavailable)
}
