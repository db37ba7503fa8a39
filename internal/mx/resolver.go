// Package mx resolves mail-exchange records for candidate domains.
package mx

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/rotisserie/eris"
)

// Sentinel failures the SMTP verifier distinguishes when building its
// diagnostic. Everything else is a generic resolver fault.
var (
	ErrNoDomain  = eris.New("mx: domain does not exist")
	ErrNoRecords = eris.New("mx: no mail exchangers for domain")
)

// Host is a single mail exchanger.
type Host struct {
	Name string
	Pref uint16
}

// Resolver looks up the mail exchangers for a domain, lowest preference
// value (highest priority) first.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]Host, error)
}

// Option configures the DNS resolver.
type Option func(*dnsResolver)

// WithServer overrides the DNS server address (host:port).
func WithServer(addr string) Option {
	return func(r *dnsResolver) {
		r.server = addr
	}
}

// WithTimeout overrides the query timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *dnsResolver) {
		r.client.Timeout = d
	}
}

type dnsResolver struct {
	client *dns.Client
	server string
}

// NewResolver creates an MX resolver backed by a direct DNS query.
func NewResolver(opts ...Option) Resolver {
	r := &dnsResolver{
		client: &dns.Client{Timeout: 5 * time.Second},
		server: "8.8.8.8:53",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *dnsResolver) LookupMX(ctx context.Context, domain string) ([]Host, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, eris.Wrapf(err, "mx: query %s", domain)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, eris.Wrapf(ErrNoDomain, "mx: query %s", domain)
	default:
		return nil, eris.Errorf("mx: query %s failed with rcode %d", domain, resp.Rcode)
	}

	var hosts []Host
	for _, ans := range resp.Answer {
		if rec, ok := ans.(*dns.MX); ok {
			hosts = append(hosts, Host{
				Name: strings.TrimSuffix(rec.Mx, "."),
				Pref: rec.Preference,
			})
		}
	}
	if len(hosts) == 0 {
		return nil, eris.Wrapf(ErrNoRecords, "mx: query %s", domain)
	}

	sort.SliceStable(hosts, func(i, j int) bool {
		return hosts[i].Pref < hosts[j].Pref
	})
	return hosts, nil
}
