package ledger

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libmultisig-go/owner"
)

func makeAddr(seed byte) owner.Address {
	var a owner.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

// storeFactories runs every behavioural test against both implementations.
func storeFactories(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"mem": func() Store { return NewMemStore() },
		"bolt": func() Store {
			s, err := OpenBoltStore(filepath.Join(t.TempDir(), "ledger.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStore_AppendAssignsDenseIndices(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()

			n, err := s.Count()
			require.NoError(t, err)
			assert.Equal(t, uint64(0), n)

			for want := uint64(0); want < 3; want++ {
				idx, err := s.Append(&Record{Index: 99, To: makeAddr(0x01), Value: want})
				require.NoError(t, err)
				assert.Equal(t, want, idx)
			}

			n, err = s.Count()
			require.NoError(t, err)
			assert.Equal(t, uint64(3), n)

			rec, err := s.Get(1)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), rec.Index)
			assert.Equal(t, uint64(1), rec.Value)
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			_, err := s.Get(0)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_PutAndCommit(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			idx, err := s.Append(&Record{To: makeAddr(0x02), Value: 5, Data: []byte{0xde, 0xad}})
			require.NoError(t, err)

			rec, err := s.Get(idx)
			require.NoError(t, err)
			rec.Confirmations = []owner.Address{makeAddr(0x0A)}
			require.NoError(t, s.Put(rec))

			got, err := s.Get(idx)
			require.NoError(t, err)
			assert.Equal(t, []owner.Address{makeAddr(0x0A)}, got.Confirmations)
			assert.Equal(t, []byte{0xde, 0xad}, got.Data)

			_, err = s.Credit(10)
			require.NoError(t, err)

			got.Executed = true
			require.NoError(t, s.Commit(got, 5))

			final, err := s.Get(idx)
			require.NoError(t, err)
			assert.True(t, final.Executed)
			bal, err := s.Balance()
			require.NoError(t, err)
			assert.Equal(t, uint64(5), bal)
		})
	}
}

func TestStore_PutMissingFailsWithoutSideEffects(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			_, err := s.Credit(7)
			require.NoError(t, err)

			err = s.Put(&Record{Index: 4})
			assert.ErrorIs(t, err, ErrNotFound)

			err = s.Commit(&Record{Index: 4}, 0)
			assert.ErrorIs(t, err, ErrNotFound)

			bal, err := s.Balance()
			require.NoError(t, err)
			assert.Equal(t, uint64(7), bal, "failed commit must not touch balance")

			assert.ErrorIs(t, s.Put(nil), ErrNilParam)
			assert.ErrorIs(t, s.Commit(nil, 0), ErrNilParam)
			_, err = s.Append(nil)
			assert.ErrorIs(t, err, ErrNilParam)
		})
	}
}

func TestStore_ReturnedRecordsAreCopies(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			in := &Record{To: makeAddr(0x03), Data: []byte{1, 2, 3}}
			idx, err := s.Append(in)
			require.NoError(t, err)
			in.Data[0] = 0xFF

			rec, err := s.Get(idx)
			require.NoError(t, err)
			rec.Data[1] = 0xFF
			rec.Confirmations = append(rec.Confirmations, makeAddr(0x09))

			again, err := s.Get(idx)
			require.NoError(t, err)
			assert.Equal(t, []byte{1, 2, 3}, again.Data)
			assert.Empty(t, again.Confirmations)
		})
	}
}

func TestStore_List(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			for i := 0; i < 4; i++ {
				_, err := s.Append(&Record{Value: uint64(i * 10)})
				require.NoError(t, err)
			}
			recs, err := s.List()
			require.NoError(t, err)
			require.Len(t, recs, 4)
			for i, r := range recs {
				assert.Equal(t, uint64(i), r.Index)
				assert.Equal(t, uint64(i*10), r.Value)
			}
		})
	}
}

func TestStore_Credit(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			bal, err := s.Balance()
			require.NoError(t, err)
			assert.Equal(t, uint64(0), bal)

			bal, err = s.Credit(3)
			require.NoError(t, err)
			assert.Equal(t, uint64(3), bal)

			bal, err = s.Credit(4)
			require.NoError(t, err)
			assert.Equal(t, uint64(7), bal)

			_, err = s.Credit(math.MaxUint64)
			assert.ErrorIs(t, err, ErrOverflow)

			bal, err = s.Balance()
			require.NoError(t, err)
			assert.Equal(t, uint64(7), bal)
		})
	}
}

func TestStore_Policy(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			_, err := s.Policy()
			assert.ErrorIs(t, err, ErrNoPolicy)

			p := &Policy{Owners: []owner.Address{makeAddr(1), makeAddr(2)}, Threshold: 2}
			require.NoError(t, s.SetPolicy(p))

			got, err := s.Policy()
			require.NoError(t, err)
			assert.Equal(t, p, got)

			err = s.SetPolicy(&Policy{Owners: []owner.Address{makeAddr(3)}, Threshold: 1})
			assert.ErrorIs(t, err, ErrPolicyExists)

			assert.ErrorIs(t, s.SetPolicy(nil), ErrNilParam)
		})
	}
}

func TestRecord_Clone(t *testing.T) {
	r := &Record{
		Index:         2,
		Data:          []byte{9},
		Confirmations: []owner.Address{makeAddr(1)},
	}
	c := r.Clone()
	c.Data[0] = 0
	c.Confirmations[0] = makeAddr(2)

	assert.Equal(t, []byte{9}, r.Data)
	assert.Equal(t, makeAddr(1), r.Confirmations[0])
}
