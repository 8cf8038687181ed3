package owner

import (
	"encoding/json"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeAddr(seed byte) Address {
	var a Address
	for i := range a {
		a[i] = seed
	}
	return a
}

// ---------------------------------------------------------------------------
// Registry construction
// ---------------------------------------------------------------------------

func TestNewRegistry(t *testing.T) {
	a, b, c := makeAddr(0x01), makeAddr(0x02), makeAddr(0x03)

	tests := []struct {
		name      string
		owners    []Address
		threshold int
		wantErr   error
	}{
		{"valid 2 of 3", []Address{a, b, c}, 2, nil},
		{"valid 1 of 1", []Address{a}, 1, nil},
		{"valid 3 of 3", []Address{a, b, c}, 3, nil},
		{"empty", nil, 1, ErrInvalidOwnerSet},
		{"zero threshold", []Address{a, b}, 0, ErrInvalidThreshold},
		{"negative threshold", []Address{a, b}, -1, ErrInvalidThreshold},
		{"threshold above count", []Address{a, b}, 3, ErrInvalidThreshold},
		{"duplicate", []Address{a, b, a}, 2, ErrDuplicateOwner},
		{"zero address", []Address{a, Zero}, 1, ErrDuplicateOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.owners, tt.threshold)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrConstruction)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.owners), r.OwnerCount())
			assert.Equal(t, tt.threshold, r.Threshold())
			assert.GreaterOrEqual(t, r.Threshold(), 1)
			assert.LessOrEqual(t, r.Threshold(), r.OwnerCount())
		})
	}
}

func TestRegistry_Queries(t *testing.T) {
	a, b, c := makeAddr(0x0A), makeAddr(0x0B), makeAddr(0x0C)
	r, err := NewRegistry([]Address{c, a, b}, 2)
	require.NoError(t, err)

	assert.True(t, r.IsOwner(a))
	assert.True(t, r.IsOwner(c))
	assert.False(t, r.IsOwner(makeAddr(0x0D)))
	assert.False(t, r.IsOwner(Zero))

	// Construction order is preserved, not sorted.
	assert.Equal(t, []Address{c, a, b}, r.Owners())

	pos, ok := r.Position(b)
	assert.True(t, ok)
	assert.Equal(t, 2, pos)
}

func TestRegistry_OwnersIsCopy(t *testing.T) {
	a, b := makeAddr(0x01), makeAddr(0x02)
	input := []Address{a, b}
	r, err := NewRegistry(input, 1)
	require.NoError(t, err)

	input[0] = makeAddr(0xFF)
	got := r.Owners()
	got[1] = makeAddr(0xEE)

	assert.Equal(t, []Address{a, b}, r.Owners())
	assert.False(t, r.IsOwner(makeAddr(0xFF)))
}

func TestRegistry_Sort(t *testing.T) {
	a, b, c := makeAddr(0x01), makeAddr(0x02), makeAddr(0x03)
	r, err := NewRegistry([]Address{a, b, c}, 2)
	require.NoError(t, err)

	got := r.Sort([]Address{c, makeAddr(0x09), a})
	assert.Equal(t, []Address{a, c}, got)
	assert.Empty(t, r.Sort(nil))
}

// ---------------------------------------------------------------------------
// Address encoding
// ---------------------------------------------------------------------------

func TestFromPublicKey(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)

	addr, err := FromPublicKey(priv.PubKey())
	require.NoError(t, err)
	assert.Equal(t, bsvhash.Hash160(priv.PubKey().Compressed()), addr[:])
	assert.False(t, addr.IsZero())

	_, err = FromPublicKey(nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestAddress_EncodeParseRoundTrip(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := FromPublicKey(priv.PubKey())
	require.NoError(t, err)

	for _, mainnet := range []bool{true, false} {
		s, err := addr.Encode(mainnet)
		require.NoError(t, err)

		parsed, err := ParseAddress(s)
		require.NoError(t, err)
		assert.Equal(t, addr, parsed)

		parsed, err = Parse(s)
		require.NoError(t, err)
		assert.Equal(t, addr, parsed)
	}
}

func TestParseHex(t *testing.T) {
	addr := makeAddr(0x5A)

	parsed, err := ParseHex(addr.Hex())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	parsed, err = Parse(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	_, err = ParseHex("zz")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = ParseHex("0102")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "not-an-address", "1111"} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrInvalidAddress, "input %q", s)
	}
}

func TestParseList(t *testing.T) {
	a, b := makeAddr(0x01), makeAddr(0x02)
	got, err := ParseList([]string{a.Hex(), b.Hex()})
	require.NoError(t, err)
	assert.Equal(t, []Address{a, b}, got)

	_, err = ParseList([]string{a.Hex(), "bogus"})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAddress_JSON(t *testing.T) {
	type wrapper struct {
		To Address `json:"to"`
	}
	in := wrapper{To: makeAddr(0x42)}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"to":"`+in.To.Hex()+`"}`, string(data))

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
