package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the encrypted seed file inside the data directory.
const FileName = "wallet.enc"

// SaveWallet encrypts seed under password and writes it to path with mode
// 0600. An existing file is never overwritten.
func SaveWallet(path string, seed []byte, password string) error {
	enc, err := EncryptSeed(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("wallet: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrWalletExists, path)
	}
	if err != nil {
		return fmt.Errorf("wallet: create %s: %w", path, err)
	}
	if _, err := f.Write(enc); err != nil {
		_ = f.Close()
		return fmt.Errorf("wallet: write %s: %w", path, err)
	}
	return f.Close()
}

// LoadWallet decrypts the seed at path and opens it for network.
func LoadWallet(path, password, network string) (*Wallet, error) {
	enc, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("wallet: read %s: %w", path, err)
	}
	seed, err := DecryptSeed(enc, password)
	if err != nil {
		return nil, err
	}
	return NewWallet(seed, network)
}
