package multisig

import (
	"context"

	"github.com/bitfsorg/libmultisig-go/ledger"
	"github.com/bitfsorg/libmultisig-go/owner"
)

// Transaction is a read-only view of one ledger entry.
type Transaction struct {
	Index         uint64          `json:"index"`
	To            owner.Address   `json:"to"`
	Value         uint64          `json:"value"`
	Data          []byte          `json:"data"`
	Executed      bool            `json:"executed"`
	Confirmations []owner.Address `json:"confirmations"`
}

// NumConfirmations returns the number of owners currently confirming.
func (t *Transaction) NumConfirmations() int {
	return len(t.Confirmations)
}

// ConfirmedBy reports whether addr currently confirms the transaction.
func (t *Transaction) ConfirmedBy(addr owner.Address) bool {
	return containsAddr(t.Confirmations, addr)
}

// Confirmable reports whether the transaction is pending and has reached threshold.
func (t *Transaction) Confirmable(threshold int) bool {
	return !t.Executed && len(t.Confirmations) >= threshold
}

func transactionFromRecord(r *ledger.Record) *Transaction {
	t := &Transaction{
		Index:         r.Index,
		To:            r.To,
		Value:         r.Value,
		Data:          append([]byte{}, r.Data...),
		Executed:      r.Executed,
		Confirmations: append([]owner.Address{}, r.Confirmations...),
	}
	return t
}

// Action is the sealed command captured at submission and replayed unchanged
// when the transaction executes.
type Action struct {
	Index uint64
	To    owner.Address
	Value uint64
	Data  []byte
}

// Executor performs the value transfer of an approved action. A non-nil
// error means nothing was transferred.
type Executor interface {
	Execute(ctx context.Context, action Action) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, action Action) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, action Action) error {
	return f(ctx, action)
}

// DirectTransfer settles an action by the balance debit alone; the recipient
// runs no logic and cannot refuse.
var DirectTransfer Executor = ExecutorFunc(func(context.Context, Action) error { return nil })

func containsAddr(list []owner.Address, addr owner.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

func removeAddr(list []owner.Address, addr owner.Address) []owner.Address {
	out := make([]owner.Address, 0, len(list))
	for _, a := range list {
		if a != addr {
			out = append(out, a)
		}
	}
	return out
}
