package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/bitfsorg/libmultisig-go/owner"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
//
// An empty owner list with a zero threshold is accepted so a node can be
// configured before its owners are known.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.Network != "mainnet" && cfg.Network != "testnet" && cfg.Network != "regtest" {
		return ErrInvalidNetwork
	}

	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if len(cfg.Owners) == 0 && cfg.Threshold == 0 {
		return nil
	}
	owners, err := cfg.OwnerAddresses()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOwners, err)
	}
	if _, err := owner.NewRegistry(owners, cfg.Threshold); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOwners, err)
	}
	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}
