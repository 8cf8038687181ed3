// Package network talks to a BSV node over JSON-RPC on behalf of the
// treasury: listing its spendable outputs, broadcasting settlement
// transactions and polling their status.
package network

import "context"

// BlockchainService is the node surface the payout layer depends on.
type BlockchainService interface {
	// ListUnspent returns the unspent outputs paying to address.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// BroadcastTx submits a raw transaction in hex and returns its txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)

	// GetTxStatus reports whether txid has been mined.
	GetTxStatus(ctx context.Context, txid string) (*TxStatus, error)

	// ImportAddress registers address as watch-only so ListUnspent can see it.
	ImportAddress(ctx context.Context, address string) error
}

// UTXO is an unspent output. Amount is in satoshis.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"`
	ScriptPubKey  string `json:"script_pubkey"`
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}

// TxStatus is the mining status of a transaction.
type TxStatus struct {
	Confirmed     bool   `json:"confirmed"`
	Confirmations int64  `json:"confirmations"`
	BlockHash     string `json:"block_hash"`
	BlockHeight   uint64 `json:"block_height"`
}
