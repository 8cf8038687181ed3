package payout

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	"github.com/bitfsorg/libmultisig-go/network"
	"github.com/bitfsorg/libmultisig-go/owner"
)

const (
	// DustLimit is the minimum P2PKH output value in satoshis.
	DustLimit = uint64(546)

	// DefaultFeeRate is the default fee rate in sat/KB.
	DefaultFeeRate = uint64(1)
)

// UTXO is a spendable treasury output. TxID is in internal byte order.
type UTXO struct {
	TxID         []byte
	Vout         uint32
	Amount       uint64
	ScriptPubKey []byte
}

// FromNetwork converts a node-reported output, whose txid is display hex.
func FromNetwork(u *network.UTXO) (*UTXO, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: utxo", ErrNilParam)
	}
	txid, err := hex.DecodeString(u.TxID)
	if err != nil || len(txid) != 32 {
		return nil, fmt.Errorf("payout: bad txid %q", u.TxID)
	}
	for i, j := 0, len(txid)-1; i < j; i, j = i+1, j-1 {
		txid[i], txid[j] = txid[j], txid[i]
	}
	spk, err := hex.DecodeString(u.ScriptPubKey)
	if err != nil {
		return nil, fmt.Errorf("payout: bad script for %s:%d: %w", u.TxID, u.Vout, err)
	}
	return &UTXO{TxID: txid, Vout: u.Vout, Amount: u.Amount, ScriptPubKey: spk}, nil
}

// Transfer describes one settlement transaction.
type Transfer struct {
	To      owner.Address
	Value   uint64
	Data    []byte
	Change  owner.Address
	FeeRate uint64
}

// Built is a signed settlement transaction.
type Built struct {
	Tx     *transaction.Transaction
	Inputs []*UTXO
	Fee    uint64
	Change uint64
}

// EstimateFee returns ceil(size * feeRate / 1000).
func EstimateFee(txSizeBytes int, feeRate uint64) uint64 {
	if feeRate == 0 {
		feeRate = DefaultFeeRate
	}
	return (uint64(txSizeBytes)*feeRate + 999) / 1000
}

// EstimateTxSize approximates the size of a transaction spending numInputs
// P2PKH inputs into numOutputs P2PKH outputs plus an OP_RETURN output when
// dataLen is positive.
func EstimateTxSize(numInputs, numOutputs, dataLen int) int {
	size := 10 + numInputs*148 + numOutputs*34
	if dataLen > 0 {
		// value(8) + script len(3) + OP_FALSE OP_RETURN(2) + push header(<=5)
		size += 18 + dataLen
	}
	return size
}

// BuildTransfer selects inputs from utxos, largest first, and returns a
// transaction signed with key paying t.Value to t.To. Change above the dust
// limit goes back to t.Change; smaller change is left to the miner.
func BuildTransfer(utxos []*UTXO, t Transfer, key *ec.PrivateKey) (*Built, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: signing key", ErrNilParam)
	}
	if t.Value == 0 && len(t.Data) == 0 {
		return nil, ErrEmptyTransfer
	}
	if t.Value > 0 && t.Value < DustLimit {
		return nil, fmt.Errorf("%w: %d < %d", ErrDustOutput, t.Value, DustLimit)
	}

	pool := make([]*UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u != nil {
			pool = append(pool, u)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Amount > pool[j].Amount })

	payOutputs := 1 // change
	if t.Value > 0 {
		payOutputs++
	}

	var (
		selected []*UTXO
		total    uint64
		fee      uint64
	)
	for _, u := range pool {
		selected = append(selected, u)
		total += u.Amount
		fee = EstimateFee(EstimateTxSize(len(selected), payOutputs, len(t.Data)), t.FeeRate)
		if total >= t.Value+fee {
			break
		}
	}
	if total < t.Value+fee || len(selected) == 0 {
		return nil, fmt.Errorf("%w: need %d sat, have %d sat", ErrInsufficientFunds, t.Value+fee, total)
	}

	sdkTx := transaction.NewTransaction()
	for _, u := range selected {
		h, err := chainhash.NewHash(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: input txid: %w", ErrScriptBuild, err)
		}
		sdkTx.AddInput(&transaction.TransactionInput{
			SourceTXID:       h,
			SourceTxOutIndex: u.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})
	}

	if t.Value > 0 {
		out, err := p2pkhOutput(t.To, t.Value)
		if err != nil {
			return nil, err
		}
		sdkTx.Outputs = append(sdkTx.Outputs, out)
	}
	if len(t.Data) > 0 {
		s, err := dataScript(t.Data)
		if err != nil {
			return nil, err
		}
		sdkTx.Outputs = append(sdkTx.Outputs, &transaction.TransactionOutput{Satoshis: 0, LockingScript: s})
	}
	change := total - t.Value - fee
	if change > DustLimit {
		out, err := p2pkhOutput(t.Change, change)
		if err != nil {
			return nil, err
		}
		sdkTx.Outputs = append(sdkTx.Outputs, out)
	} else {
		fee += change
		change = 0
	}

	unlocker, err := p2pkh.Unlock(key, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: unlocker: %w", ErrSigningFailed, err)
	}
	for i, u := range selected {
		sdkTx.Inputs[i].SetSourceTxOutput(&transaction.TransactionOutput{
			Satoshis:      u.Amount,
			LockingScript: script.NewFromBytes(u.ScriptPubKey),
		})
		sdkTx.Inputs[i].UnlockingScriptTemplate = unlocker
	}
	if err := sdkTx.Sign(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	return &Built{Tx: sdkTx, Inputs: selected, Fee: fee, Change: change}, nil
}

// LockingScript returns the P2PKH locking script paying to addr.
func LockingScript(addr owner.Address) (*script.Script, error) {
	a, err := script.NewAddressFromPublicKeyHash(addr[:], true)
	if err != nil {
		return nil, fmt.Errorf("%w: address: %w", ErrScriptBuild, err)
	}
	s, err := p2pkh.Lock(a)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock: %w", ErrScriptBuild, err)
	}
	return s, nil
}

func p2pkhOutput(addr owner.Address, sats uint64) (*transaction.TransactionOutput, error) {
	s, err := LockingScript(addr)
	if err != nil {
		return nil, err
	}
	return &transaction.TransactionOutput{Satoshis: sats, LockingScript: s}, nil
}

// dataScript builds OP_FALSE OP_RETURN <data>.
func dataScript(data []byte) (*script.Script, error) {
	s := &script.Script{}
	*s = append(*s, script.Op0, script.OpRETURN)
	if err := s.AppendPushData(data); err != nil {
		return nil, fmt.Errorf("%w: OP_RETURN push: %w", ErrScriptBuild, err)
	}
	return s, nil
}
