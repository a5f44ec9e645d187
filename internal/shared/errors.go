package shared

import "errors"

var (
	// ErrValidation indicates malformed or missing input; the caller's fault, never retried.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStateConflict indicates a lifecycle guard rejected the transition.
	ErrStateConflict = errors.New("state conflict")
	// ErrReferential indicates a line references a product, tax, account, or partner that does not exist.
	ErrReferential = errors.New("referential integrity violation")
	// ErrSequenceExhausted indicates the number allocator could not reach its store; safe to retry.
	ErrSequenceExhausted = errors.New("sequence allocation failed")
)
