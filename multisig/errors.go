package multisig

import (
	"errors"
	"fmt"
)

// Error classes. Every sentinel below wraps exactly one of them.
var (
	// ErrAuthorization is the class of caller authorization failures.
	ErrAuthorization = errors.New("multisig: unauthorized")

	// ErrState is the class of failures caused by the transaction's current state.
	ErrState = errors.New("multisig: invalid state")

	// ErrExecution is the class of failed value transfers.
	ErrExecution = errors.New("multisig: execution error")
)

var (
	// ErrNotOwner indicates the caller is not in the owner registry.
	ErrNotOwner = fmt.Errorf("%w: caller is not an owner", ErrAuthorization)

	// ErrNoSuchTransaction indicates the index is past the end of the ledger.
	ErrNoSuchTransaction = fmt.Errorf("%w: no such transaction", ErrState)

	// ErrAlreadyExecuted indicates the transaction is executed and frozen.
	ErrAlreadyExecuted = fmt.Errorf("%w: transaction already executed", ErrState)

	// ErrAlreadyConfirmed indicates the caller already confirmed the transaction.
	ErrAlreadyConfirmed = fmt.Errorf("%w: transaction already confirmed by caller", ErrState)

	// ErrNotConfirmed indicates the caller has no confirmation to revoke.
	ErrNotConfirmed = fmt.Errorf("%w: transaction not confirmed by caller", ErrState)

	// ErrInsufficientConfirmations indicates the quorum has not been reached.
	ErrInsufficientConfirmations = fmt.Errorf("%w: insufficient confirmations", ErrState)

	// ErrExecutionFailed indicates the value transfer failed; the transaction
	// stays pending and may be executed again.
	ErrExecutionFailed = fmt.Errorf("%w: execution failed", ErrExecution)

	// ErrRollbackFailed indicates the transfer failed and the executed flag
	// and debit could not be restored. The record needs operator repair.
	ErrRollbackFailed = fmt.Errorf("%w: rollback failed", ErrExecution)
)

var (
	// ErrInsufficientBalance indicates the held balance cannot cover the value.
	ErrInsufficientBalance = errors.New("multisig: insufficient balance")

	// ErrInvalidAmount indicates a zero or otherwise unusable deposit amount.
	ErrInvalidAmount = errors.New("multisig: invalid amount")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("multisig: required parameter is nil")
)
