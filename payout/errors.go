package payout

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("payout: required parameter is nil")

	// ErrNoRecipient indicates call data was sent to an address with no
	// registered recipient logic.
	ErrNoRecipient = errors.New("payout: no recipient for call data")

	// ErrInsufficientFunds indicates the treasury outputs cannot cover the
	// transfer and its fee.
	ErrInsufficientFunds = errors.New("payout: insufficient funds")

	// ErrDustOutput indicates a non-zero transfer below the dust limit.
	ErrDustOutput = errors.New("payout: output below dust limit")

	// ErrScriptBuild indicates a locking script could not be built.
	ErrScriptBuild = errors.New("payout: script build failed")

	// ErrSigningFailed indicates the settlement transaction could not be signed.
	ErrSigningFailed = errors.New("payout: signing failed")
)

// ErrEmptyTransfer indicates a transfer with neither value nor data.
var ErrEmptyTransfer = errors.New("payout: empty transfer")
