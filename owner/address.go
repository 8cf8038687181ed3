// Package owner defines owner addresses and the immutable owner registry that
// authorizes every mutating wallet operation.
package owner

import (
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/bsv-blockchain/go-sdk/script"
)

// AddressLen is the size of an address: HASH160 of a compressed public key.
const AddressLen = 20

// Address identifies an owner or a recipient by its P2PKH public key hash.
// The zero value is the null address and never names a valid owner.
type Address [AddressLen]byte

// Zero is the null address.
var Zero Address

// IsZero reports whether a is the null address.
func (a Address) IsZero() bool {
	return a == Zero
}

// Hex returns the lowercase hex encoding of the public key hash.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// String returns the hex form; use Encode for a base58 address.
func (a Address) String() string {
	return a.Hex()
}

// Encode returns the base58check P2PKH address for mainnet or testnet.
func (a Address) Encode(mainnet bool) (string, error) {
	addr, err := script.NewAddressFromPublicKeyHash(a[:], mainnet)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return addr.AddressString, nil
}

// MarshalText encodes the address as hex.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText accepts either the hex or the base58 form.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// FromPublicKey derives the address of a secp256k1 public key.
func FromPublicKey(pub *ec.PublicKey) (Address, error) {
	if pub == nil {
		return Zero, fmt.Errorf("%w: public key", ErrNilParam)
	}
	return FromPublicKeyHash(bsvhash.Hash160(pub.Compressed()))
}

// FromPublicKeyHash copies a 20-byte public key hash into an Address.
func FromPublicKeyHash(pkh []byte) (Address, error) {
	var a Address
	if len(pkh) != AddressLen {
		return a, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressLen, len(pkh))
	}
	copy(a[:], pkh)
	return a, nil
}

// ParseAddress decodes a base58check P2PKH address (mainnet or testnet).
func ParseAddress(s string) (Address, error) {
	addr, err := script.NewAddressFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	return FromPublicKeyHash([]byte(addr.PublicKeyHash))
}

// ParseHex decodes a 40-character hex public key hash.
func ParseHex(s string) (Address, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	return FromPublicKeyHash(b)
}

// Parse accepts the hex form or a base58 address.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) == 2*AddressLen {
		if a, err := ParseHex(s); err == nil {
			return a, nil
		}
	}
	return ParseAddress(s)
}

// ParseList parses every entry of ss with Parse, keeping order.
func ParseList(ss []string) ([]Address, error) {
	out := make([]Address, 0, len(ss))
	for _, s := range ss {
		a, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
