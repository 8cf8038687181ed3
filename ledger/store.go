// Package ledger persists the multisig transaction list, the held balance and
// the owner policy. Records are append-only and addressed by a dense 0-based
// index; nothing is ever deleted.
package ledger

import (
	"fmt"
	"math"
	"sync"

	"github.com/bitfsorg/libmultisig-go/owner"
)

// Record is the stored form of one proposed transaction.
type Record struct {
	Index         uint64
	To            owner.Address
	Value         uint64
	Data          []byte
	Confirmations []owner.Address
	Executed      bool
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	if r.Data != nil {
		c.Data = append([]byte{}, r.Data...)
	}
	if r.Confirmations != nil {
		c.Confirmations = append([]owner.Address{}, r.Confirmations...)
	}
	return &c
}

// Policy is the owner set and threshold a ledger was created for.
type Policy struct {
	Owners    []owner.Address
	Threshold int
}

// Store persists ledger state. Implementations must make each call atomic;
// callers provide the ordering between calls.
type Store interface {
	// SetPolicy records the owner policy. It can be written once.
	SetPolicy(p *Policy) error

	// Policy returns the stored owner policy or ErrNoPolicy.
	Policy() (*Policy, error)

	// Append stores rec at the next index and returns that index.
	Append(rec *Record) (uint64, error)

	// Get returns a copy of the record at index.
	Get(index uint64) (*Record, error)

	// Put replaces the existing record with the same index.
	Put(rec *Record) error

	// Commit replaces rec and sets the balance in one atomic write.
	Commit(rec *Record, balance uint64) error

	// Count returns the number of records.
	Count() (uint64, error)

	// List returns every record in index order.
	List() ([]*Record, error)

	// Balance returns the held balance.
	Balance() (uint64, error)

	// Credit adds amount to the balance and returns the new balance.
	Credit(amount uint64) (uint64, error)

	// Close releases resources held by the store.
	Close() error
}

// MemStore is an in-memory Store, used by tests and ephemeral engines.
type MemStore struct {
	mu      sync.RWMutex
	policy  *Policy
	records []*Record
	balance uint64
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// SetPolicy records the owner policy.
func (s *MemStore) SetPolicy(p *Policy) error {
	if p == nil {
		return fmt.Errorf("%w: policy", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy != nil {
		return ErrPolicyExists
	}
	s.policy = &Policy{
		Owners:    append([]owner.Address{}, p.Owners...),
		Threshold: p.Threshold,
	}
	return nil
}

// Policy returns the stored owner policy.
func (s *MemStore) Policy() (*Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.policy == nil {
		return nil, ErrNoPolicy
	}
	return &Policy{
		Owners:    append([]owner.Address{}, s.policy.Owners...),
		Threshold: s.policy.Threshold,
	}, nil
}

// Append stores rec at the next index.
func (s *MemStore) Append(rec *Record) (uint64, error) {
	if rec == nil {
		return 0, fmt.Errorf("%w: record", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := rec.Clone()
	c.Index = uint64(len(s.records))
	s.records = append(s.records, c)
	return c.Index, nil
}

// Get returns a copy of the record at index.
func (s *MemStore) Get(index uint64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index >= uint64(len(s.records)) {
		return nil, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	return s.records[index].Clone(), nil
}

// Put replaces the record with the same index.
func (s *MemStore) Put(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("%w: record", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Index >= uint64(len(s.records)) {
		return fmt.Errorf("%w: index %d", ErrNotFound, rec.Index)
	}
	s.records[rec.Index] = rec.Clone()
	return nil
}

// Commit replaces rec and sets the balance together.
func (s *MemStore) Commit(rec *Record, balance uint64) error {
	if rec == nil {
		return fmt.Errorf("%w: record", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Index >= uint64(len(s.records)) {
		return fmt.Errorf("%w: index %d", ErrNotFound, rec.Index)
	}
	s.records[rec.Index] = rec.Clone()
	s.balance = balance
	return nil
}

// Count returns the number of records.
func (s *MemStore) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.records)), nil
}

// List returns copies of every record in index order.
func (s *MemStore) List() ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out, nil
}

// Balance returns the held balance.
func (s *MemStore) Balance() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance, nil
}

// Credit adds amount to the balance.
func (s *MemStore) Credit(amount uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount > math.MaxUint64-s.balance {
		return s.balance, fmt.Errorf("%w: %d + %d", ErrOverflow, s.balance, amount)
	}
	s.balance += amount
	return s.balance, nil
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error { return nil }
