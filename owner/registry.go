package owner

import "fmt"

// Registry is the fixed set of owners and the number of distinct owner
// confirmations a transaction needs before it may execute.
// A Registry never changes after NewRegistry returns.
type Registry struct {
	owners    []Address
	index     map[Address]int
	threshold int
}

// NewRegistry validates owners and threshold and returns the registry.
//
// The owner list must be non-empty, the threshold must lie in
// [1, len(owners)], and no address may repeat or be zero.
func NewRegistry(owners []Address, threshold int) (*Registry, error) {
	if len(owners) == 0 {
		return nil, ErrInvalidOwnerSet
	}
	if threshold < 1 || threshold > len(owners) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidThreshold, threshold, len(owners))
	}

	r := &Registry{
		owners:    make([]Address, len(owners)),
		index:     make(map[Address]int, len(owners)),
		threshold: threshold,
	}
	for i, o := range owners {
		if o.IsZero() {
			return nil, fmt.Errorf("%w: owner %d is the zero address", ErrDuplicateOwner, i)
		}
		if prev, dup := r.index[o]; dup {
			return nil, fmt.Errorf("%w: %s at %d and %d", ErrDuplicateOwner, o, prev, i)
		}
		r.index[o] = i
		r.owners[i] = o
	}
	return r, nil
}

// IsOwner reports whether addr is one of the owners.
func (r *Registry) IsOwner(addr Address) bool {
	_, ok := r.index[addr]
	return ok
}

// Position returns the construction-order position of an owner.
func (r *Registry) Position(addr Address) (int, bool) {
	i, ok := r.index[addr]
	return i, ok
}

// OwnerCount returns the number of owners.
func (r *Registry) OwnerCount() int {
	return len(r.owners)
}

// Threshold returns the number of confirmations required to execute.
func (r *Registry) Threshold() int {
	return r.threshold
}

// Owners returns the owners in construction order. The slice is a copy.
func (r *Registry) Owners() []Address {
	out := make([]Address, len(r.owners))
	copy(out, r.owners)
	return out
}

// Sort orders a subset of owners by registry position, dropping non-owners.
func (r *Registry) Sort(addrs []Address) []Address {
	seen := make([]bool, len(r.owners))
	for _, a := range addrs {
		if i, ok := r.index[a]; ok {
			seen[i] = true
		}
	}
	out := make([]Address, 0, len(addrs))
	for i, ok := range seen {
		if ok {
			out = append(out, r.owners[i])
		}
	}
	return out
}
