package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libmultisig-go/owner"
)

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "ledger.db")

	s, err := OpenBoltStore(path)
	require.NoError(t, err)

	policy := &Policy{Owners: []owner.Address{makeAddr(1), makeAddr(2), makeAddr(3)}, Threshold: 2}
	require.NoError(t, s.SetPolicy(policy))

	idx, err := s.Append(&Record{To: makeAddr(0x44), Value: 1})
	require.NoError(t, err)
	rec, err := s.Get(idx)
	require.NoError(t, err)
	rec.Confirmations = []owner.Address{makeAddr(1), makeAddr(2)}
	rec.Executed = true
	require.NoError(t, s.Commit(rec, 41))
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Policy()
	require.NoError(t, err)
	assert.Equal(t, policy, got)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	back, err := s.Get(0)
	require.NoError(t, err)
	assert.True(t, back.Executed)
	assert.Equal(t, makeAddr(0x44), back.To)
	assert.Equal(t, []owner.Address{makeAddr(1), makeAddr(2)}, back.Confirmations)

	bal, err := s.Balance()
	require.NoError(t, err)
	assert.Equal(t, uint64(41), bal)

	// Indices continue after reopen.
	idx, err = s.Append(&Record{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), idx)
}

func TestIndexKey_SortsNumerically(t *testing.T) {
	assert.Len(t, indexKey(7), 8)
	assert.Equal(t, -1, compareBytes(indexKey(9), indexKey(256)))
}

func compareBytes(a, b []byte) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}
