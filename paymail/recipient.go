// Package paymail turns the recipient strings owners type (paymail handles,
// P2PKH addresses, hex public keys) into multisig owner addresses.
package paymail

import (
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/libmultisig-go/owner"
)

// Kind is the form a recipient string was written in.
type Kind int

const (
	// KindPaymail is alias@domain.
	KindPaymail Kind = iota
	// KindAddress is a base58check P2PKH address or 40-char hex hash.
	KindAddress
	// KindPubKey is a 66-char hex compressed public key.
	KindPubKey
)

func (k Kind) String() string {
	switch k {
	case KindPaymail:
		return "paymail"
	case KindAddress:
		return "address"
	case KindPubKey:
		return "pubkey"
	default:
		return "unknown"
	}
}

// Recipient is a parsed recipient string. Address is set for KindAddress and
// KindPubKey; paymail handles need network resolution.
type Recipient struct {
	Kind    Kind
	Alias   string
	Domain  string
	PubKey  []byte
	Address owner.Address
}

const compressedPubKeyHexLen = 66

// ParseRecipient classifies s without touching the network.
func ParseRecipient(s string) (*Recipient, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidRecipient)
	}

	if alias, domain, ok := strings.Cut(s, "@"); ok {
		if alias == "" || domain == "" || strings.Contains(domain, "@") || !strings.Contains(domain, ".") {
			return nil, fmt.Errorf("%w: bad paymail handle %q", ErrInvalidRecipient, s)
		}
		return &Recipient{Kind: KindPaymail, Alias: strings.ToLower(alias), Domain: strings.ToLower(domain)}, nil
	}

	if isPubKeyHex(s) {
		pk, _ := hex.DecodeString(s)
		addr, err := addressFromPubKey(pk)
		if err != nil {
			return nil, err
		}
		return &Recipient{Kind: KindPubKey, PubKey: pk, Address: addr}, nil
	}

	addr, err := owner.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecipient, s)
	}
	return &Recipient{Kind: KindAddress, Address: addr}, nil
}

// Handle returns alias@domain for paymail recipients.
func (r *Recipient) Handle() string {
	if r.Kind != KindPaymail {
		return ""
	}
	return r.Alias + "@" + r.Domain
}

func isPubKeyHex(s string) bool {
	if len(s) != compressedPubKeyHexLen {
		return false
	}
	if !strings.HasPrefix(s, "02") && !strings.HasPrefix(s, "03") {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func validateCompressedPubKey(pk []byte) error {
	if len(pk) != 33 {
		return fmt.Errorf("%w: expected 33 bytes, got %d", ErrInvalidPubKey, len(pk))
	}
	if pk[0] != 0x02 && pk[0] != 0x03 {
		return fmt.Errorf("%w: bad prefix 0x%02x", ErrInvalidPubKey, pk[0])
	}
	return nil
}

func addressFromPubKey(pk []byte) (owner.Address, error) {
	if err := validateCompressedPubKey(pk); err != nil {
		return owner.Zero, err
	}
	pub, err := ec.PublicKeyFromBytes(pk)
	if err != nil {
		return owner.Zero, fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
	}
	return owner.FromPublicKey(pub)
}
