package network

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treasuryAddr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

func TestListUnspent(t *testing.T) {
	srv := rpcTestServer(t, map[string]rpcHandler{
		"listunspent": func(params []interface{}) (interface{}, *rpcError) {
			require.Len(t, params, 3)
			assert.Equal(t, float64(0), params[0])
			assert.Equal(t, float64(9999999), params[1])
			assert.Equal(t, []interface{}{treasuryAddr}, params[2])
			return []map[string]interface{}{
				{"txid": "aa", "vout": 0, "amount": 0.001, "scriptPubKey": "76a9", "address": treasuryAddr, "confirmations": 6},
				{"txid": "bb", "vout": 2, "amount": 0.29, "scriptPubKey": "76a9", "address": treasuryAddr, "confirmations": 0},
			}, nil
		},
	})

	utxos, err := NewRPCClient(RPCConfig{URL: srv.URL}).ListUnspent(context.Background(), treasuryAddr)
	require.NoError(t, err)
	require.Len(t, utxos, 2)
	assert.Equal(t, "aa", utxos[0].TxID)
	assert.Equal(t, uint64(100000), utxos[0].Amount)
	assert.Equal(t, int64(6), utxos[0].Confirmations)
	assert.Equal(t, uint32(2), utxos[1].Vout)
	assert.Equal(t, uint64(29000000), utxos[1].Amount)
}

func TestListUnspentEmpty(t *testing.T) {
	srv := rpcTestServer(t, map[string]rpcHandler{
		"listunspent": func([]interface{}) (interface{}, *rpcError) {
			return []interface{}{}, nil
		},
	})
	utxos, err := NewRPCClient(RPCConfig{URL: srv.URL}).ListUnspent(context.Background(), treasuryAddr)
	require.NoError(t, err)
	assert.Empty(t, utxos)
}

func TestBroadcastTx(t *testing.T) {
	srv := rpcTestServer(t, map[string]rpcHandler{
		"sendrawtransaction": func(params []interface{}) (interface{}, *rpcError) {
			assert.Equal(t, []interface{}{"0100beef"}, params)
			return "c0ffee", nil
		},
	})
	txid, err := NewRPCClient(RPCConfig{URL: srv.URL}).BroadcastTx(context.Background(), "0100beef")
	require.NoError(t, err)
	assert.Equal(t, "c0ffee", txid)
}

func TestBroadcastTxRejected(t *testing.T) {
	srv := rpcTestServer(t, map[string]rpcHandler{
		"sendrawtransaction": func([]interface{}) (interface{}, *rpcError) {
			return nil, &rpcError{Code: -26, Message: "66: insufficient priority"}
		},
	})
	_, err := NewRPCClient(RPCConfig{URL: srv.URL}).BroadcastTx(context.Background(), "00")
	assert.ErrorIs(t, err, ErrBroadcastRejected)
	assert.Contains(t, err.Error(), "insufficient priority")
}

func TestGetTxStatus(t *testing.T) {
	srv := rpcTestServer(t, map[string]rpcHandler{
		"getrawtransaction": func(params []interface{}) (interface{}, *rpcError) {
			assert.Equal(t, true, params[1])
			if params[0] == "mined" {
				return map[string]interface{}{"confirmations": 3, "blockhash": "00ff", "blockheight": 100}, nil
			}
			return map[string]interface{}{}, nil
		},
	})
	c := NewRPCClient(RPCConfig{URL: srv.URL})

	st, err := c.GetTxStatus(context.Background(), "mined")
	require.NoError(t, err)
	assert.True(t, st.Confirmed)
	assert.Equal(t, int64(3), st.Confirmations)
	assert.Equal(t, "00ff", st.BlockHash)
	assert.Equal(t, uint64(100), st.BlockHeight)

	st, err = c.GetTxStatus(context.Background(), "mempool")
	require.NoError(t, err)
	assert.False(t, st.Confirmed)
}

func TestImportAddress(t *testing.T) {
	calls := 0
	srv := rpcTestServer(t, map[string]rpcHandler{
		"importaddress": func(params []interface{}) (interface{}, *rpcError) {
			calls++
			assert.Equal(t, []interface{}{treasuryAddr, "", true}, params)
			if calls > 1 {
				return nil, &rpcError{Code: -4, Message: "The wallet already contains this address"}
			}
			return nil, nil
		},
	})
	c := NewRPCClient(RPCConfig{URL: srv.URL})
	require.NoError(t, c.ImportAddress(context.Background(), treasuryAddr))
	require.NoError(t, c.ImportAddress(context.Background(), treasuryAddr))
	assert.Equal(t, 2, calls)
}

func TestImportAddress_OtherRPCErrorsSurface(t *testing.T) {
	srv := rpcTestServer(t, map[string]rpcHandler{
		"importaddress": func(params []interface{}) (interface{}, *rpcError) {
			// Message mentions "already" but the code is not a wallet error.
			return nil, &rpcError{Code: -5, Message: "Invalid address, already tried"}
		},
	})
	c := NewRPCClient(RPCConfig{URL: srv.URL})
	err := c.ImportAddress(context.Background(), treasuryAddr)
	require.Error(t, err)

	var rpcErr *rpcError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -5, rpcErr.Code)
}

func TestBtcToSat(t *testing.T) {
	tests := []struct {
		btc  float64
		want uint64
	}{
		{0, 0},
		{0.00000001, 1},
		{0.1, 10000000},
		{21000000, 2100000000000000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, btcToSat(tt.btc))
	}
}

func TestMockBlockchainServiceDefaults(t *testing.T) {
	var m MockBlockchainService
	utxos, err := m.ListUnspent(context.Background(), treasuryAddr)
	assert.NoError(t, err)
	assert.Nil(t, utxos)
	st, err := m.GetTxStatus(context.Background(), "x")
	assert.NoError(t, err)
	assert.False(t, st.Confirmed)
}
