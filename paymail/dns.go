package paymail

import (
	"fmt"
	"net"
	"sort"
	"strings"
)

// DNSResolver looks up SRV records. Tests substitute a fake.
type DNSResolver interface {
	LookupSRV(service, proto, name string) (string, []*net.SRV, error)
}

type netResolver struct{}

func (netResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return net.LookupSRV(service, proto, name)
}

// DefaultDNSResolver uses the system resolver.
var DefaultDNSResolver DNSResolver = netResolver{}

// srvService is the bsvalias SRV service: _bsvalias._tcp.<domain>.
const srvService = "bsvalias"

// ResolveEndpoints returns host:port pairs for the paymail service of
// domain, ordered by priority then descending weight.
func ResolveEndpoints(domain string, resolver DNSResolver) ([]string, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}
	if resolver == nil {
		resolver = DefaultDNSResolver
	}
	_, addrs, err := resolver.LookupSRV(srvService, "tcp", domain)
	if err != nil {
		return nil, fmt.Errorf("%w: _%s._tcp.%s: %w", ErrDNSLookupFailed, srvService, domain, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: _%s._tcp.%s", ErrNoEndpoints, srvService, domain)
	}

	sort.SliceStable(addrs, func(i, j int) bool {
		if addrs[i].Priority != addrs[j].Priority {
			return addrs[i].Priority < addrs[j].Priority
		}
		return addrs[i].Weight > addrs[j].Weight
	})
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = fmt.Sprintf("%s:%d", strings.TrimSuffix(a.Target, "."), a.Port)
	}
	return out, nil
}
