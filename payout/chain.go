package payout

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/libmultisig-go/multisig"
	"github.com/bitfsorg/libmultisig-go/network"
	"github.com/bitfsorg/libmultisig-go/owner"
)

// Settlement records one broadcast settlement transaction.
type Settlement struct {
	Index uint64 `json:"index"`
	TxID  string `json:"txid"`
	Fee   uint64 `json:"fee"`
}

// ChainExecutor settles actions on-chain from a single-key treasury address.
type ChainExecutor struct {
	chain   network.BlockchainService
	key     *ec.PrivateKey
	addr    owner.Address
	mainnet bool
	feeRate uint64

	mu sync.Mutex
	// outpoints spent by our broadcasts that the node may still report
	spent map[string]struct{}
}

var _ multisig.Executor = (*ChainExecutor)(nil)

// ChainOption configures a ChainExecutor.
type ChainOption func(*ChainExecutor)

// WithFeeRate sets the fee rate in sat/KB.
func WithFeeRate(rate uint64) ChainOption {
	return func(c *ChainExecutor) { c.feeRate = rate }
}

// NewChainExecutor creates an executor spending outputs locked to key.
func NewChainExecutor(chain network.BlockchainService, key *ec.PrivateKey, mainnet bool, opts ...ChainOption) (*ChainExecutor, error) {
	if chain == nil {
		return nil, fmt.Errorf("%w: blockchain service", ErrNilParam)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: treasury key", ErrNilParam)
	}
	addr, err := owner.FromPublicKey(key.PubKey())
	if err != nil {
		return nil, err
	}
	c := &ChainExecutor{
		chain:   chain,
		key:     key,
		addr:    addr,
		mainnet: mainnet,
		feeRate: DefaultFeeRate,
		spent:   make(map[string]struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Address returns the treasury address funding settlements.
func (c *ChainExecutor) Address() owner.Address {
	return c.addr
}

// Execute implements multisig.Executor.
func (c *ChainExecutor) Execute(ctx context.Context, a multisig.Action) error {
	_, err := c.Settle(ctx, a)
	return err
}

// Settle builds, signs and broadcasts the settlement of a. An action with
// neither value nor data moves nothing and is not broadcast.
func (c *ChainExecutor) Settle(ctx context.Context, a multisig.Action) (*Settlement, error) {
	if a.Value == 0 && len(a.Data) == 0 {
		return &Settlement{Index: a.Index}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	from, err := c.addr.Encode(c.mainnet)
	if err != nil {
		return nil, err
	}
	listed, err := c.chain.ListUnspent(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("payout: list treasury outputs: %w", err)
	}

	seen := make(map[string]struct{}, len(listed))
	var utxos []*UTXO
	for _, l := range listed {
		u, err := FromNetwork(l)
		if err != nil {
			log.Warningf("skipping treasury output: %v", err)
			continue
		}
		key := outpoint(u)
		seen[key] = struct{}{}
		if _, ok := c.spent[key]; ok {
			continue
		}
		utxos = append(utxos, u)
	}
	for key := range c.spent {
		if _, ok := seen[key]; !ok {
			delete(c.spent, key)
		}
	}

	built, err := BuildTransfer(utxos, Transfer{
		To:      a.To,
		Value:   a.Value,
		Data:    a.Data,
		Change:  c.addr,
		FeeRate: c.feeRate,
	}, c.key)
	if err != nil {
		return nil, err
	}

	txid, err := c.chain.BroadcastTx(ctx, built.Tx.Hex())
	if err != nil {
		return nil, fmt.Errorf("payout: broadcast tx %d: %w", a.Index, err)
	}
	for _, u := range built.Inputs {
		c.spent[outpoint(u)] = struct{}{}
	}
	log.Infof("tx %d settled on-chain in %s (fee %d)", a.Index, txid, built.Fee)
	return &Settlement{Index: a.Index, TxID: txid, Fee: built.Fee}, nil
}

func outpoint(u *UTXO) string {
	return fmt.Sprintf("%s:%d", hex.EncodeToString(u.TxID), u.Vout)
}
