package store

import "errors"

// Sentinel errors shared by every store implementation.
var (
	// ErrNotFound means the operation's scope (id, or id+author pair)
	// matched no live row. It is an expected outcome, not a fault.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate means a unique constraint rejected the insert: the
	// (voter, comment) or (reporter, comment) pair already has a live row.
	// This is the expected concurrency signal; callers surface it as
	// "already voted/reported" and never retry.
	ErrDuplicate = errors.New("duplicate entry")
)
