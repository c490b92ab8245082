package domain

import "errors"

// Error kinds shared by every component. Services wrap these with a subject,
// e.g. fmt.Errorf("hypothesis %w", ErrNotFound), so callers match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
	ErrCyclicDerivation  = errors.New("cyclic derivation")
	ErrInvalidChain      = errors.New("invalid verification chain")
	ErrInvalidInput      = errors.New("invalid input")
)

// IsRetryable reports whether the failed operation may be retried as-is.
// Only optimistic concurrency failures qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
