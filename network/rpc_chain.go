package network

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var _ BlockchainService = (*RPCClient)(nil)

// btcToSat converts a node-reported BTC amount to satoshis.
func btcToSat(btc float64) uint64 {
	return uint64(math.Round(btc * 1e8))
}

type listUnspentResult struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Amount        float64 `json:"amount"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Address       string  `json:"address"`
	Confirmations int64   `json:"confirmations"`
}

// ListUnspent calls `listunspent 0 9999999 [address]`, including mempool outputs.
func (c *RPCClient) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	var results []listUnspentResult
	if err := c.Call(ctx, "listunspent", []interface{}{0, 9999999, []string{address}}, &results); err != nil {
		return nil, err
	}
	utxos := make([]*UTXO, 0, len(results))
	for _, r := range results {
		utxos = append(utxos, &UTXO{
			TxID:          r.TxID,
			Vout:          r.Vout,
			Amount:        btcToSat(r.Amount),
			ScriptPubKey:  r.ScriptPubKey,
			Address:       r.Address,
			Confirmations: r.Confirmations,
		})
	}
	return utxos, nil
}

// BroadcastTx calls `sendrawtransaction`. Node refusals wrap ErrBroadcastRejected.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", []interface{}{rawTxHex}, &txid); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBroadcastRejected, err)
	}
	log.Infof("broadcast %s", txid)
	return txid, nil
}

type verboseTxResult struct {
	Confirmations int64  `json:"confirmations"`
	BlockHash     string `json:"blockhash"`
	BlockHeight   uint64 `json:"blockheight"`
}

// GetTxStatus calls verbose `getrawtransaction`.
func (c *RPCClient) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	var r verboseTxResult
	if err := c.Call(ctx, "getrawtransaction", []interface{}{txid, true}, &r); err != nil {
		return nil, err
	}
	return &TxStatus{
		Confirmed:     r.Confirmations > 0,
		Confirmations: r.Confirmations,
		BlockHash:     r.BlockHash,
		BlockHeight:   r.BlockHeight,
	}, nil
}

// rpcWalletError is the node's RPC_WALLET_ERROR code, returned by
// importaddress for an address the wallet already holds.
const rpcWalletError = -4

// ImportAddress calls `importaddress address "" true`. Importing an address
// the node already watches is not an error.
func (c *RPCClient) ImportAddress(ctx context.Context, address string) error {
	err := c.Call(ctx, "importaddress", []interface{}{address, "", true}, nil)
	var rpcErr *rpcError
	if errors.As(err, &rpcErr) && rpcErr.Code == rpcWalletError {
		log.Debugf("address %s already watched: %s", address, rpcErr.Message)
		return nil
	}
	return err
}
