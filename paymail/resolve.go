package paymail

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/op/go-logging"

	"github.com/bitfsorg/libmultisig-go/owner"
)

var log = logging.MustGetLogger("PAYMAIL")

// HTTPClient is the subset of *http.Client the resolver uses.
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// DefaultHTTPClient has a 30 second timeout.
var DefaultHTTPClient HTTPClient = &http.Client{Timeout: 30 * time.Second}

// Capabilities are the paymail endpoints a host advertises.
type Capabilities struct {
	PKI           string
	VerifyPubKey  string
	PublicProfile string
}

// Capability keys, by BRFC id or short name.
const (
	capPKI           = "pki"
	capPKIBRFC       = "0c4339ef99c2"
	capVerifyPubKey  = "a9f510c16bde"
	capPublicProfile = "f12f968c92d6"
)

const maxResponseBytes = 1 << 20

type wellKnown struct {
	BSVAlias     string                 `json:"bsvalias"`
	Capabilities map[string]interface{} `json:"capabilities"`
}

type pkiResponse struct {
	BSVAlias string `json:"bsvalias"`
	Handle   string `json:"handle"`
	PubKey   string `json:"pubkey"`
}

// Resolver resolves recipient strings to owner addresses.
type Resolver struct {
	HTTP HTTPClient
	DNS  DNSResolver
}

// NewResolver returns a resolver using the system DNS and DefaultHTTPClient.
func NewResolver() *Resolver {
	return &Resolver{HTTP: DefaultHTTPClient, DNS: DefaultDNSResolver}
}

// Resolve parses s and, for paymail handles, looks up the owner's public key
// through the paymail PKI capability.
func (r *Resolver) Resolve(s string) (owner.Address, error) {
	rcpt, err := ParseRecipient(s)
	if err != nil {
		return owner.Zero, err
	}
	if rcpt.Kind != KindPaymail {
		return rcpt.Address, nil
	}
	pk, err := r.PublicKey(rcpt.Alias, rcpt.Domain)
	if err != nil {
		return owner.Zero, err
	}
	addr, err := addressFromPubKey(pk)
	if err != nil {
		return owner.Zero, err
	}
	log.Debugf("resolved %s to %s", rcpt.Handle(), addr)
	return addr, nil
}

// PublicKey fetches the compressed public key published for alias@domain.
func (r *Resolver) PublicKey(alias, domain string) ([]byte, error) {
	if alias == "" || domain == "" {
		return nil, fmt.Errorf("%w: alias and domain are required", ErrPKIResolution)
	}
	caps, err := r.Discover(domain)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPKIResolution, err)
	}
	if caps.PKI == "" {
		return nil, fmt.Errorf("%w: %s advertises no PKI capability", ErrPKIResolution, domain)
	}

	pkiURL := strings.ReplaceAll(caps.PKI, "{alias}", url.PathEscape(alias))
	pkiURL = strings.ReplaceAll(pkiURL, "{domain.tld}", domain)

	var pki pkiResponse
	if err := r.getJSON(pkiURL, &pki); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPKIResolution, err)
	}
	if pki.PubKey == "" {
		return nil, fmt.Errorf("%w: empty public key", ErrPKIResolution)
	}
	pk, err := hex.DecodeString(pki.PubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
	}
	if err := validateCompressedPubKey(pk); err != nil {
		return nil, err
	}
	return pk, nil
}

// Discover fetches the capability document for domain. The host comes from
// the _bsvalias SRV record when there is one, otherwise the domain itself.
// Capability URLs on hosts other than the domain, the SRV target or their
// subdomains are dropped.
func (r *Resolver) Discover(domain string) (*Capabilities, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrPaymailDiscovery)
	}
	host, srvHost := domain, ""
	if eps, err := ResolveEndpoints(domain, r.dns()); err == nil {
		if h, port, splitErr := net.SplitHostPort(eps[0]); splitErr == nil {
			srvHost, host = h, h
			if port != "443" {
				host = net.JoinHostPort(h, port)
			}
		}
	} else {
		log.Debugf("no SRV for %s, using domain: %v", domain, err)
	}

	var wk wellKnown
	if err := r.getJSON("https://"+host+"/.well-known/bsvalias", &wk); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymailDiscovery, err)
	}

	caps := &Capabilities{}
	for key, val := range wk.Capabilities {
		raw, ok := val.(string)
		if !ok {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || !(validateCapabilityHost(u.Hostname(), domain) ||
			(srvHost != "" && validateCapabilityHost(u.Hostname(), srvHost))) {
			log.Warningf("ignoring capability %s=%q for %s", key, raw, domain)
			continue
		}
		switch key {
		case capPKI, capPKIBRFC:
			caps.PKI = raw
		case capVerifyPubKey:
			caps.VerifyPubKey = raw
		case capPublicProfile:
			caps.PublicProfile = raw
		}
	}
	return caps, nil
}

// validateCapabilityHost reports whether host equals domain or is a
// subdomain of it.
func validateCapabilityHost(host, domain string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	if host == domain {
		return true
	}
	if host == "" || domain == "" {
		return false
	}
	return strings.HasSuffix(host, "."+domain)
}

func (r *Resolver) getJSON(rawURL string, v interface{}) error {
	client := r.HTTP
	if client == nil {
		client = DefaultHTTPClient
	}
	resp, err := client.Get(rawURL)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("GET %s: read: %w", rawURL, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", rawURL, err)
	}
	return nil
}

func (r *Resolver) dns() DNSResolver {
	if r.DNS == nil {
		return DefaultDNSResolver
	}
	return r.DNS
}
