package eventstore

import "errors"

// Rejection kinds surfaced to the transport layer. All of these are
// returned, never panicked; the caller decides user-facing phrasing.
var (
	// Validation: rejected before any mutation.
	ErrWinnerCount = errors.New("winner count must be between 1 and 10")
	ErrBadOutcome  = errors.New("invalid outcome tag")

	// Not found.
	ErrNotFound = errors.New("event not found")

	// Conflicts: state forbids the operation, nothing is mutated.
	ErrClosed          = errors.New("betting is closed")
	ErrAlreadyBet      = errors.New("participant already bet on this event")
	ErrAlreadyClosed   = errors.New("betting already closed")
	ErrAlreadyResolved = errors.New("outcome already declared")
	ErrNoOutcome       = errors.New("no outcome declared yet")
)

const (
	MinWinners = 1
	MaxWinners = 10
)
