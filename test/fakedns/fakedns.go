// Package fakedns is an in-process double of the DNS service the harness
// drives: the name control API over HTTP and resolution over DNS, with
// the cache behavior the scenarios measure. Deleted records stay visible
// until the TTL passes, and a miss is cached for the TTL, masking
// re-publications. Everything listens on loopback, so tests need no
// topology and no root.
package fakedns

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// DefaultTTL mirrors the 30-second cache of the real service; tests dial
// it down to keep runs fast
const DefaultTTL = 30 * time.Second

// Config configures the fake
type Config struct {
	// TTL is the emulated cache TTL for stale and negative answers
	TTL time.Duration
}

type record struct {
	containerID string
	active      bool
	staleUntil  time.Time
}

// Server is one running fake service instance
type Server struct {
	ttl time.Duration

	mu sync.Mutex
	// records[fqdn][ip]
	records  map[string]map[string]*record
	negUntil map[string]time.Time

	dnsServer *dns.Server
	httpSrv   *http.Server
	httpLn    net.Listener
	dnsConn   net.PacketConn
}

// New creates a fake server; call Start to bind its listeners
func New(cfg Config) *Server {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	return &Server{
		ttl:      cfg.TTL,
		records:  make(map[string]map[string]*record),
		negUntil: make(map[string]time.Time),
	}
}

// Start binds the DNS and control listeners on loopback ports chosen by
// the kernel
func (s *Server) Start() error {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("bind dns listener: %w", err)
	}
	s.dnsConn = pc
	s.dnsServer = &dns.Server{PacketConn: pc, Handler: s}
	go s.dnsServer.ActivateAndServe()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		pc.Close()
		return fmt.Errorf("bind control listener: %w", err)
	}
	s.httpLn = ln

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /name/{container}/{ip}", s.handlePublish)
	mux.HandleFunc("DELETE /name/{container}/{ip}", s.handleDelete)
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	})
	s.httpSrv = &http.Server{Handler: mux}
	go s.httpSrv.Serve(ln)

	return nil
}

// Stop shuts both listeners down
func (s *Server) Stop() error {
	var firstErr error
	if s.dnsServer != nil {
		if err := s.dnsServer.Shutdown(); err != nil {
			firstErr = err
		}
	}
	if s.httpSrv != nil {
		if err := s.httpSrv.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Addr returns the address clients should target
func (s *Server) Addr() string { return "127.0.0.1" }

// DNSPort returns the bound DNS port
func (s *Server) DNSPort() int {
	return s.dnsConn.LocalAddr().(*net.UDPAddr).Port
}

// ControlPort returns the bound control API port
func (s *Server) ControlPort() int {
	return s.httpLn.Addr().(*net.TCPAddr).Port
}

// Publish makes fqdn resolve to ip. A re-publication during a cached-miss
// window stays invisible until the window passes, like the real cache.
func (s *Server) Publish(containerID, fqdn, ip string) {
	fqdn = dns.Fqdn(strings.ToLower(fqdn))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[fqdn] == nil {
		s.records[fqdn] = make(map[string]*record)
	}
	s.records[fqdn][ip] = &record{containerID: containerID, active: true}
}

// Delete removes the record. It keeps serving as a stale answer until the
// TTL passes.
func (s *Server) Delete(containerID, fqdn, ip string) {
	fqdn = dns.Fqdn(strings.ToLower(fqdn))

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[fqdn][ip]; ok && rec.active {
		rec.active = false
		rec.staleUntil = time.Now().Add(s.ttl)
	}
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	fqdn := r.URL.Query().Get("fqdn")
	if fqdn == "" {
		http.Error(w, "missing fqdn", http.StatusBadRequest)
		return
	}
	s.Publish(r.PathValue("container"), fqdn, r.PathValue("ip"))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	fqdn := r.URL.Query().Get("fqdn")
	if fqdn == "" {
		http.Error(w, "missing fqdn", http.StatusBadRequest)
		return
	}
	s.Delete(r.PathValue("container"), fqdn, r.PathValue("ip"))
}

// ServeDNS answers A and PTR questions from the record store
func (s *Server) ServeDNS(w dns.ResponseWriter, req *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(req)

	if len(req.Question) == 1 {
		q := req.Question[0]
		switch q.Qtype {
		case dns.TypeA:
			for _, ip := range s.lookupA(q.Name) {
				m.Answer = append(m.Answer, &dns.A{
					Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: uint32(s.ttl.Seconds())},
					A:   net.ParseIP(ip),
				})
			}
		case dns.TypePTR:
			for _, fqdn := range s.lookupPTR(q.Name) {
				m.Answer = append(m.Answer, &dns.PTR{
					Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: uint32(s.ttl.Seconds())},
					Ptr: fqdn,
				})
			}
		}
	}

	w.WriteMsg(m)
}

// lookupA returns the visible addresses for fqdn, applying stale and
// negative caching
func (s *Server) lookupA(qname string) []string {
	fqdn := dns.Fqdn(strings.ToLower(qname))
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.negUntil[fqdn].After(now) {
		return nil
	}

	var ips []string
	for ip, rec := range s.records[fqdn] {
		if rec.active || now.Before(rec.staleUntil) {
			ips = append(ips, ip)
		}
	}
	if len(ips) == 0 {
		// Cache the miss; the window is not extended by later misses
		s.negUntil[fqdn] = now.Add(s.ttl)
	}
	return ips
}

// lookupPTR returns the visible names for a reverse question
func (s *Server) lookupPTR(qname string) []string {
	ip, ok := ipFromReverse(qname)
	if !ok {
		return nil
	}
	key := "ptr:" + ip
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.negUntil[key].After(now) {
		return nil
	}

	var fqdns []string
	for fqdn, recs := range s.records {
		if rec, found := recs[ip]; found && (rec.active || now.Before(rec.staleUntil)) {
			fqdns = append(fqdns, fqdn)
		}
	}
	if len(fqdns) == 0 {
		s.negUntil[key] = now.Add(s.ttl)
	}
	return fqdns
}

// ipFromReverse turns "9.0.0.10.in-addr.arpa." back into "10.0.0.9"
func ipFromReverse(qname string) (string, bool) {
	name := strings.TrimSuffix(strings.ToLower(dns.Fqdn(qname)), ".in-addr.arpa.")
	parts := strings.Split(name, ".")
	if len(parts) != 4 {
		return "", false
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	ip := strings.Join(parts, ".")
	if net.ParseIP(ip) == nil {
		return "", false
	}
	return ip, true
}
