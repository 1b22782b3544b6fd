package savannah

import (
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
)

// Errors returned by the store. Use errors.Is to check for them.
var (
	ErrInvalidOperation   = errs.ErrInvalidOperation
	ErrDuplicateKey       = errs.ErrDuplicateKey
	ErrNotFound           = errs.ErrNotFound
	ErrCollectionExists   = errs.ErrCollectionExists
	ErrCollectionNotFound = errs.ErrCollectionNotFound
	ErrNotSupported       = errs.ErrNotSupported
	ErrTypeMismatch       = errs.ErrTypeMismatch
)

// IsConflict reports whether err is a conflict: the operation was rejected by the stored
// state and nothing was written.
func IsConflict(err error) bool {
	return errs.IsConflict(err)
}
