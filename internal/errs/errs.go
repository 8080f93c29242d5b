// Package errs defines the business error taxonomy shared by services and
// handlers. Rule violations are returned as typed values the API layer can map
// to precise statuses; only genuine storage or transport failures fall through
// as internal errors.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired means the caller presented no valid identity.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrNotFound means the license, request, or account is absent or not
	// owned by the caller. Ownership failures are deliberately reported the
	// same as absence.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the operation is forbidden in the entity's
	// current lifecycle state (e.g. extending a lifetime license).
	ErrInvalidState = errors.New("invalid state")

	// ErrDuplicatePendingRequest means a pending request already exists for
	// the same license or account.
	ErrDuplicatePendingRequest = errors.New("duplicate pending request")

	// ErrValidation means the input itself is malformed (day count out of
	// range, missing rejection reason, broken expiry string).
	ErrValidation = errors.New("validation error")
)

// InsufficientCreditsError carries the exact shortfall so the caller can
// render required vs. available.
type InsufficientCreditsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

// AsInsufficientCredits unwraps err into an InsufficientCreditsError if it is
// one.
func AsInsufficientCredits(err error) (*InsufficientCreditsError, bool) {
	var ice *InsufficientCreditsError
	if errors.As(err, &ice) {
		return ice, true
	}
	return nil, false
}
