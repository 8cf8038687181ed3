package payout

import (
	"bytes"
	"encoding/hex"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libmultisig-go/network"
	"github.com/bitfsorg/libmultisig-go/owner"
)

func treasury(t *testing.T) (*ec.PrivateKey, owner.Address, []byte) {
	t.Helper()
	key, err := ec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := owner.FromPublicKey(key.PubKey())
	require.NoError(t, err)
	s, err := LockingScript(addr)
	require.NoError(t, err)
	return key, addr, []byte(*s)
}

func fakeUTXO(seed byte, amount uint64, spk []byte) *UTXO {
	return &UTXO{TxID: bytes.Repeat([]byte{seed}, 32), Vout: uint32(seed), Amount: amount, ScriptPubKey: spk}
}

var payeeAddr = owner.Address{0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77,
	0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77}

// ---------------------------------------------------------------------------
// Fee estimation
// ---------------------------------------------------------------------------

func TestEstimateFee(t *testing.T) {
	assert.Equal(t, uint64(1), EstimateFee(226, 0))
	assert.Equal(t, uint64(1), EstimateFee(1000, 1))
	assert.Equal(t, uint64(2), EstimateFee(1001, 1))
	assert.Equal(t, uint64(50), EstimateFee(1000, 50))
	assert.Equal(t, uint64(0), EstimateFee(0, 1))
}

func TestEstimateTxSize(t *testing.T) {
	assert.Equal(t, 10+148+68, EstimateTxSize(1, 2, 0))
	assert.Equal(t, 10+296+34+18+40, EstimateTxSize(2, 1, 40))
}

// ---------------------------------------------------------------------------
// BuildTransfer
// ---------------------------------------------------------------------------

func TestBuildTransfer_ValueWithChange(t *testing.T) {
	key, addr, spk := treasury(t)

	b, err := BuildTransfer([]*UTXO{fakeUTXO(1, 100000, spk)},
		Transfer{To: payeeAddr, Value: 10000, Change: addr}, key)
	require.NoError(t, err)

	require.Len(t, b.Tx.Inputs, 1)
	require.Len(t, b.Tx.Outputs, 2)
	assert.Equal(t, uint64(10000), b.Tx.Outputs[0].Satoshis)
	assert.Equal(t, uint64(1), b.Fee)
	assert.Equal(t, uint64(89999), b.Change)
	assert.Equal(t, b.Change, b.Tx.Outputs[1].Satoshis)

	payeeScript, err := LockingScript(payeeAddr)
	require.NoError(t, err)
	assert.Equal(t, []byte(*payeeScript), []byte(*b.Tx.Outputs[0].LockingScript))
	assert.Equal(t, spk, []byte(*b.Tx.Outputs[1].LockingScript))

	require.NotNil(t, b.Tx.Inputs[0].UnlockingScript)
	assert.NotEmpty(t, b.Tx.Hex())
}

func TestBuildTransfer_DataOutput(t *testing.T) {
	key, addr, spk := treasury(t)
	data := []byte("invoice 42")

	b, err := BuildTransfer([]*UTXO{fakeUTXO(1, 5000, spk)},
		Transfer{To: payeeAddr, Value: 1000, Data: data, Change: addr}, key)
	require.NoError(t, err)
	require.Len(t, b.Tx.Outputs, 3)

	opret := []byte(*b.Tx.Outputs[1].LockingScript)
	assert.Equal(t, []byte{0x00, 0x6a}, opret[:2])
	assert.True(t, bytes.HasSuffix(opret, data))
	assert.Zero(t, b.Tx.Outputs[1].Satoshis)
}

func TestBuildTransfer_DataOnly(t *testing.T) {
	key, addr, spk := treasury(t)

	b, err := BuildTransfer([]*UTXO{fakeUTXO(1, 5000, spk)},
		Transfer{To: payeeAddr, Data: []byte{0x01}, Change: addr}, key)
	require.NoError(t, err)
	require.Len(t, b.Tx.Outputs, 2)
	assert.Zero(t, b.Tx.Outputs[0].Satoshis)
}

func TestBuildTransfer_DustChangeGoesToFee(t *testing.T) {
	key, addr, spk := treasury(t)

	b, err := BuildTransfer([]*UTXO{fakeUTXO(1, 10501, spk)},
		Transfer{To: payeeAddr, Value: 10000, Change: addr}, key)
	require.NoError(t, err)
	require.Len(t, b.Tx.Outputs, 1)
	assert.Equal(t, uint64(501), b.Fee)
	assert.Zero(t, b.Change)
}

func TestBuildTransfer_LargestFirst(t *testing.T) {
	key, addr, spk := treasury(t)
	utxos := []*UTXO{fakeUTXO(1, 1000, spk), fakeUTXO(2, 50000, spk), fakeUTXO(3, 20000, spk)}

	b, err := BuildTransfer(utxos, Transfer{To: payeeAddr, Value: 30000, Change: addr}, key)
	require.NoError(t, err)
	require.Len(t, b.Inputs, 1)
	assert.Equal(t, uint64(50000), b.Inputs[0].Amount)

	b, err = BuildTransfer(utxos, Transfer{To: payeeAddr, Value: 60000, Change: addr}, key)
	require.NoError(t, err)
	assert.Len(t, b.Inputs, 2)
}

func TestBuildTransfer_Errors(t *testing.T) {
	key, addr, spk := treasury(t)
	funds := []*UTXO{fakeUTXO(1, 5000, spk)}

	tests := []struct {
		name    string
		utxos   []*UTXO
		tr      Transfer
		key     *ec.PrivateKey
		wantErr error
	}{
		{"nil key", funds, Transfer{To: payeeAddr, Value: 1000}, nil, ErrNilParam},
		{"empty", funds, Transfer{To: payeeAddr}, key, ErrEmptyTransfer},
		{"dust", funds, Transfer{To: payeeAddr, Value: 545}, key, ErrDustOutput},
		{"no utxos", nil, Transfer{To: payeeAddr, Value: 1000}, key, ErrInsufficientFunds},
		{"too little", funds, Transfer{To: payeeAddr, Value: 5000, Change: addr}, key, ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTransfer(tt.utxos, tt.tr, tt.key)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFromNetwork(t *testing.T) {
	display := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	u, err := FromNetwork(&network.UTXO{TxID: display, Vout: 3, Amount: 700, ScriptPubKey: "76a9"})
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), u.TxID[0])
	assert.Equal(t, byte(0x00), u.TxID[31])
	assert.Equal(t, uint32(3), u.Vout)
	assert.Equal(t, []byte{0x76, 0xa9}, u.ScriptPubKey)

	_, err = FromNetwork(&network.UTXO{TxID: "abcd"})
	assert.Error(t, err)
	_, err = FromNetwork(&network.UTXO{TxID: display, ScriptPubKey: "zz"})
	assert.Error(t, err)
	_, err = FromNetwork(nil)
	assert.ErrorIs(t, err, ErrNilParam)

	assert.Equal(t, display[62:], hex.EncodeToString(u.TxID[:1]))
}
