package submissiondb

import "errors"

// Sentinel errors for the repository layer.
var (
	// ErrNotFound indicates the requested attempt does not exist.
	ErrNotFound = errors.New("submission attempt not found")

	// ErrDuplicateKey indicates the (team, flag, round, challenge type) unique
	// constraint rejected an insert, usually a lost race with an identical submission.
	ErrDuplicateKey = errors.New("duplicate submission attempt")

	// ErrScopeBusy indicates the scope lock could not be taken before the context ended.
	ErrScopeBusy = errors.New("submission scope busy")
)
