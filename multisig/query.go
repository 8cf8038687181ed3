package multisig

import (
	"fmt"

	"github.com/bitfsorg/libmultisig-go/owner"
)

// Owners returns the owner list in registry order.
func (e *Engine) Owners() []owner.Address {
	return e.registry.Owners()
}

// Threshold returns the number of confirmations required to execute.
func (e *Engine) Threshold() int {
	return e.registry.Threshold()
}

// IsOwner reports whether addr is an owner.
func (e *Engine) IsOwner(addr owner.Address) bool {
	return e.registry.IsOwner(addr)
}

// Balance returns the value currently held by the treasury.
func (e *Engine) Balance() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Balance()
}

// TransactionCount returns the number of transactions ever submitted.
func (e *Engine) TransactionCount() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Count()
}

// Transaction returns a snapshot of the transaction at index.
func (e *Engine) Transaction(index uint64) (*Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.load(index)
	if err != nil {
		return nil, err
	}
	return transactionFromRecord(rec), nil
}

// IsConfirmed reports whether addr currently confirms the transaction at index.
// Non-owners are never confirmed.
func (e *Engine) IsConfirmed(index uint64, addr owner.Address) (bool, error) {
	tx, err := e.Transaction(index)
	if err != nil {
		return false, err
	}
	return tx.ConfirmedBy(addr), nil
}

// Transactions returns every transaction in index order.
func (e *Engine) Transactions() ([]*Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	recs, err := e.store.List()
	if err != nil {
		return nil, fmt.Errorf("multisig: list transactions: %w", err)
	}
	out := make([]*Transaction, len(recs))
	for i, r := range recs {
		out[i] = transactionFromRecord(r)
	}
	return out, nil
}

// Pending returns the transactions that are not yet executed.
func (e *Engine) Pending() ([]*Transaction, error) {
	all, err := e.Transactions()
	if err != nil {
		return nil, err
	}
	var out []*Transaction
	for _, t := range all {
		if !t.Executed {
			out = append(out, t)
		}
	}
	return out, nil
}
