package paymail

import "errors"

var (
	// ErrInvalidRecipient indicates the string is not a paymail handle,
	// P2PKH address or compressed public key.
	ErrInvalidRecipient = errors.New("paymail: invalid recipient")

	// ErrDNSLookupFailed indicates an SRV lookup failed.
	ErrDNSLookupFailed = errors.New("paymail: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not
	// authenticate the answer.
	ErrDNSSECValidationFailed = errors.New("paymail: DNSSEC validation failed")

	// ErrNoEndpoints indicates no SRV records were found for the domain.
	ErrNoEndpoints = errors.New("paymail: no endpoints found")

	// ErrPaymailDiscovery indicates .well-known/bsvalias could not be fetched.
	ErrPaymailDiscovery = errors.New("paymail: capability discovery failed")

	// ErrPKIResolution indicates the PKI endpoint failed or returned no key.
	ErrPKIResolution = errors.New("paymail: PKI resolution failed")

	// ErrInvalidPubKey indicates a key that is not a compressed secp256k1 point.
	ErrInvalidPubKey = errors.New("paymail: invalid compressed public key")
)
