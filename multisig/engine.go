// Package multisig implements a threshold-approval engine for a shared
// treasury: owners submit outgoing transfers, confirm or revoke them, and
// any owner may execute a transfer once enough owners confirm it.
package multisig

import (
	"errors"
	"fmt"
	"sync"

	"github.com/op/go-logging"

	"github.com/bitfsorg/libmultisig-go/ledger"
	"github.com/bitfsorg/libmultisig-go/owner"
)

var log = logging.MustGetLogger("MSIG")

// Engine holds the owner registry, the ledger and the treasury balance.
// All mutations are serialized; the executor runs outside the lock.
type Engine struct {
	mu       sync.Mutex
	registry *owner.Registry
	store    ledger.Store
	exec     Executor
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore sets the ledger backend. The default is an in-memory store.
func WithStore(s ledger.Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
}

// WithExecutor sets the value transfer mechanism. The default is DirectTransfer.
func WithExecutor(x Executor) Option {
	return func(e *Engine) {
		if x != nil {
			e.exec = x
		}
	}
}

// New creates an engine with a fixed owner set and threshold and records the
// policy in the store.
func New(owners []owner.Address, threshold int, opts ...Option) (*Engine, error) {
	reg, err := owner.NewRegistry(owners, threshold)
	if err != nil {
		return nil, err
	}
	e := newEngine(reg, opts)
	p := &ledger.Policy{Owners: reg.Owners(), Threshold: reg.Threshold()}
	if err := e.store.SetPolicy(p); err != nil {
		return nil, fmt.Errorf("multisig: record policy: %w", err)
	}
	log.Infof("created %d-of-%d engine", reg.Threshold(), reg.OwnerCount())
	return e, nil
}

// Open restores an engine from a store created earlier by New.
func Open(store ledger.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrNilParam
	}
	p, err := store.Policy()
	if err != nil {
		return nil, fmt.Errorf("multisig: load policy: %w", err)
	}
	reg, err := owner.NewRegistry(p.Owners, p.Threshold)
	if err != nil {
		return nil, fmt.Errorf("multisig: stored policy: %w", err)
	}
	e := newEngine(reg, append(opts, WithStore(store)))
	n, err := store.Count()
	if err != nil {
		return nil, fmt.Errorf("multisig: count transactions: %w", err)
	}
	log.Infof("opened %d-of-%d engine with %d transactions", reg.Threshold(), reg.OwnerCount(), n)
	return e, nil
}

func newEngine(reg *owner.Registry, opts []Option) *Engine {
	e := &Engine{registry: reg}
	for _, o := range opts {
		o(e)
	}
	if e.store == nil {
		e.store = ledger.NewMemStore()
	}
	if e.exec == nil {
		e.exec = DirectTransfer
	}
	return e
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Submit appends a new pending transaction with no confirmations. The
// returned index is the ledger length before the call.
func (e *Engine) Submit(caller, to owner.Address, value uint64, data []byte) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		return 0, err
	}
	rec := &ledger.Record{
		To:    to,
		Value: value,
		Data:  append([]byte{}, data...),
	}
	idx, err := e.store.Append(rec)
	if err != nil {
		return 0, fmt.Errorf("multisig: append transaction: %w", err)
	}
	log.Infof("tx %d submitted by %s: %d to %s", idx, caller, value, to)
	return idx, nil
}

// Confirm adds the caller's approval to a pending transaction.
func (e *Engine) Confirm(caller owner.Address, index uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		return err
	}
	rec, err := e.loadPending(index)
	if err != nil {
		return err
	}
	if containsAddr(rec.Confirmations, caller) {
		return fmt.Errorf("%w: tx %d by %s", ErrAlreadyConfirmed, index, caller)
	}
	rec.Confirmations = e.registry.Sort(append(rec.Confirmations, caller))
	if err := e.store.Put(rec); err != nil {
		return fmt.Errorf("multisig: store confirmation: %w", err)
	}
	log.Debugf("tx %d confirmed by %s (%d/%d)", index, caller, len(rec.Confirmations), e.registry.Threshold())
	return nil
}

// Revoke withdraws the caller's approval from a pending transaction.
func (e *Engine) Revoke(caller owner.Address, index uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		return err
	}
	rec, err := e.loadPending(index)
	if err != nil {
		return err
	}
	if !containsAddr(rec.Confirmations, caller) {
		return fmt.Errorf("%w: tx %d by %s", ErrNotConfirmed, index, caller)
	}
	rec.Confirmations = removeAddr(rec.Confirmations, caller)
	if err := e.store.Put(rec); err != nil {
		return fmt.Errorf("multisig: store revocation: %w", err)
	}
	log.Debugf("tx %d revoked by %s (%d/%d)", index, caller, len(rec.Confirmations), e.registry.Threshold())
	return nil
}

// Deposit credits the treasury balance. Anyone may deposit. It returns the
// new balance.
func (e *Engine) Deposit(from owner.Address, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, fmt.Errorf("%w: zero deposit", ErrInvalidAmount)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	bal, err := e.store.Credit(amount)
	if err != nil {
		if errors.Is(err, ledger.ErrOverflow) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		return 0, fmt.Errorf("multisig: credit deposit: %w", err)
	}
	log.Debugf("deposit of %d from %s, balance %d", amount, from, bal)
	return bal, nil
}

func (e *Engine) authorize(caller owner.Address) error {
	if !e.registry.IsOwner(caller) {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	return nil
}

// load must be called with e.mu held.
func (e *Engine) load(index uint64) (*ledger.Record, error) {
	rec, err := e.store.Get(index)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchTransaction, index)
	}
	if err != nil {
		return nil, fmt.Errorf("multisig: load tx %d: %w", index, err)
	}
	return rec, nil
}

// loadPending must be called with e.mu held.
func (e *Engine) loadPending(index uint64) (*ledger.Record, error) {
	rec, err := e.load(index)
	if err != nil {
		return nil, err
	}
	if rec.Executed {
		return nil, fmt.Errorf("%w: %d", ErrAlreadyExecuted, index)
	}
	return rec, nil
}
