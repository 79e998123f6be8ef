package resolve

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/miekg/dns"
	"github.com/pkg/errors"

	"github.com/stackmesh/dnsrig/pkg/log"
	"github.com/stackmesh/dnsrig/pkg/metrics"
)

const (
	// DefaultPort is the DNS port the service under test listens on
	DefaultPort = 53

	// DefaultTimeout bounds a single UDP exchange
	DefaultTimeout = 3 * time.Second

	// additionalRdclass is the class of the OPT pseudo-record attached to
	// every query. For EDNS the class field advertises the requester's UDP
	// payload size; the harness advertises the maximum.
	additionalRdclass = 65535
)

// Resolver issues forward (A) and reverse (PTR) queries against a service
// instance over UDP. Queries carry the AD flag and an EDNS OPT record
// because the service under test honors extended queries.
type Resolver struct {
	// Port is the DNS port on the target server
	Port int

	// Timeout is the per-query UDP timeout
	Timeout time.Duration
}

// NewResolver creates a resolver with the standard port and timeout
func NewResolver() *Resolver {
	return &Resolver{
		Port:    DefaultPort,
		Timeout: DefaultTimeout,
	}
}

// WithPort sets the DNS port on the target server
func (r *Resolver) WithPort(port int) *Resolver {
	r.Port = port
	return r
}

// WithTimeout sets the per-query UDP timeout
func (r *Resolver) WithTimeout(timeout time.Duration) *Resolver {
	r.Timeout = timeout
	return r
}

// Forward resolves name to its set of A addresses at the given server.
// The name is normalized to absolute form first. A query timeout yields an
// empty TIMEOUT result and a nil error.
func (r *Resolver) Forward(ctx context.Context, name, server string) (*Result, error) {
	fqdn := dns.Fqdn(name)

	in, err := r.exchange(ctx, fqdn, dns.TypeA, server)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return newResult(StatusTimeout, 0, nil), nil
	}

	var addrs []string
	for _, rr := range in.Answer {
		if a, ok := rr.(*dns.A); ok {
			addrs = append(addrs, a.A.String())
		}
	}
	return newResult(StatusNoError, in.Rcode, addrs), nil
}

// Reverse resolves ip to its set of PTR target names at the given server,
// using the standard in-addr.arpa construction. Same timeout semantics as
// Forward.
func (r *Resolver) Reverse(ctx context.Context, ip, server string) (*Result, error) {
	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return nil, errors.Wrapf(err, "reverse name for %s", ip)
	}

	in, err := r.exchange(ctx, arpa, dns.TypePTR, server)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return newResult(StatusTimeout, 0, nil), nil
	}

	var names []string
	for _, rr := range in.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			names = append(names, ptr.Ptr)
		}
	}
	return newResult(StatusNoError, in.Rcode, names), nil
}

// exchange sends one UDP query and returns the response, or (nil, nil) on
// a query timeout.
func (r *Resolver) exchange(ctx context.Context, qname string, qtype uint16, server string) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(qname, qtype)
	m.AuthenticatedData = true
	m.Extra = append(m.Extra, &dns.OPT{
		Hdr: dns.RR_Header{
			Name:   ".",
			Rrtype: dns.TypeOPT,
			Class:  additionalRdclass,
		},
	})

	addr := net.JoinHostPort(server, strconv.Itoa(r.Port))
	qtypeName := dns.TypeToString[qtype]

	log.Logger.Debug().
		Str("component", "resolve").
		Str("name", qname).
		Str("qtype", qtypeName).
		Str("server", addr).
		Msg("sending DNS (UDP) query")

	client := &dns.Client{
		Net:     "udp",
		Timeout: r.Timeout,
	}

	start := time.Now()
	in, rtt, err := client.ExchangeContext(ctx, m, addr)
	metrics.DNSQueryDuration.WithLabelValues(qtypeName).Observe(time.Since(start).Seconds())

	if err != nil {
		// The scenario budget expiring mid-query must abort the scenario,
		// not masquerade as an empty answer.
		if ctx.Err() != nil {
			metrics.DNSQueriesTotal.WithLabelValues(qtypeName, "CANCELED").Inc()
			return nil, errors.Wrapf(ctx.Err(), "query for %s at %s canceled", qname, addr)
		}
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			metrics.DNSQueriesTotal.WithLabelValues(qtypeName, string(StatusTimeout)).Inc()
			log.Logger.Warn().
				Str("component", "resolve").
				Str("name", qname).
				Str("server", addr).
				Dur("timeout", r.Timeout).
				Msg("timeout while waiting for response")
			return nil, nil
		}
		metrics.DNSQueriesTotal.WithLabelValues(qtypeName, "ERROR").Inc()
		return nil, errors.Wrapf(err, "query for %s at %s", qname, addr)
	}

	metrics.DNSQueriesTotal.WithLabelValues(qtypeName, dns.RcodeToString[in.Rcode]).Inc()

	log.Logger.Debug().
		Str("component", "resolve").
		Str("name", qname).
		Str("server", addr).
		Dur("rtt", rtt).
		Int("answers", len(in.Answer)).
		Int("additional", len(in.Extra)).
		Int("authority", len(in.Ns)).
		Msg("received answer")

	return in, nil
}
