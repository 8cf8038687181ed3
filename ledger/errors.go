package ledger

import "errors"

var (
	// ErrNotFound indicates no record exists at the requested index.
	ErrNotFound = errors.New("ledger: record not found")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("ledger: required parameter is nil")

	// ErrNoPolicy indicates the store has no owner policy yet.
	ErrNoPolicy = errors.New("ledger: no owner policy")

	// ErrPolicyExists indicates the owner policy was already written.
	ErrPolicyExists = errors.New("ledger: owner policy already set")

	// ErrOverflow indicates a balance credit would overflow uint64.
	ErrOverflow = errors.New("ledger: balance overflow")

	// ErrCorrupt indicates a stored value failed to decode.
	ErrCorrupt = errors.New("ledger: corrupt entry")
)
