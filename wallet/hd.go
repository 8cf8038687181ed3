package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/bitfsorg/libmultisig-go/owner"
)

const (
	PurposeBIP44 = 44
	CoinType     = 236

	TreasuryAccount = 0
	OwnerAccount    = 1

	// Hardened is the BIP32 hardened-derivation offset.
	Hardened = 0x80000000
)

// Wallet derives owner and treasury keys from a seed.
type Wallet struct {
	master  *bip32.ExtendedKey
	mainnet bool
}

// KeyPair is a derived key with its owner address.
type KeyPair struct {
	PrivateKey *ec.PrivateKey `json:"-"`
	PublicKey  *ec.PublicKey  `json:"-"`
	Address    owner.Address  `json:"address"`
	Path       string         `json:"path"`
}

// IsMainnet maps a network name to its address encoding.
func IsMainnet(network string) (bool, error) {
	switch network {
	case "mainnet", "":
		return true, nil
	case "testnet", "regtest":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidNetwork, network)
	}
}

// NewWallet creates a wallet from a BIP39 seed for the named network.
func NewWallet(seed []byte, network string) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	mainnet, err := IsMainnet(network)
	if err != nil {
		return nil, err
	}
	params := &chaincfg.TestNet
	if mainnet {
		params = &chaincfg.MainNet
	}
	master, err := bip32.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return &Wallet{master: master, mainnet: mainnet}, nil
}

// Mainnet reports whether addresses encode for mainnet.
func (w *Wallet) Mainnet() bool {
	return w.mainnet
}

// OwnerKey derives the owner signing key m/44'/236'/1'/0/index.
func (w *Wallet) OwnerKey(index uint32) (*KeyPair, error) {
	return w.derive(OwnerAccount, index)
}

// TreasuryKey derives the treasury key m/44'/236'/0'/0/index.
func (w *Wallet) TreasuryKey(index uint32) (*KeyPair, error) {
	return w.derive(TreasuryAccount, index)
}

func (w *Wallet) derive(account, index uint32) (*KeyPair, error) {
	if index >= Hardened {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	key := w.master
	for i, step := range []uint32{PurposeBIP44 + Hardened, CoinType + Hardened, account + Hardened, 0, index} {
		child, err := key.Child(step)
		if err != nil {
			return nil, fmt.Errorf("%w: depth %d: %w", ErrDerivationFailed, i+1, err)
		}
		key = child
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %w", ErrDerivationFailed, err)
	}
	addr, err := owner.FromPublicKey(priv.PubKey())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return &KeyPair{
		PrivateKey: priv,
		PublicKey:  priv.PubKey(),
		Address:    addr,
		Path:       fmt.Sprintf("m/44'/%d'/%d'/0/%d", CoinType, account, index),
	}, nil
}
