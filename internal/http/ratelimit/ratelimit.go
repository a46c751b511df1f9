package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTrackedIPs bounds the per-IP limiter map.
const maxTrackedIPs = 10000

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*ipEntry

	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	proxies []*net.IPNet
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter builds a per-IP limiter allowing r requests per second
// with the given burst. Entries idle longer than two cleanup intervals are
// dropped. trustedProxies lists CIDR ranges or single IPs of reverse proxies
// whose forwarding headers may be believed; an empty list trusts all proxies.
func NewIPRateLimiter(r rate.Limit, burst int, cleanup time.Duration, trustedProxies []string) *IPRateLimiter {
	l := &IPRateLimiter{
		entries: make(map[string]*ipEntry),
		limit:   r,
		burst:   burst,
		idleTTL: cleanup * 2,
		proxies: parseProxies(trustedProxies),
	}
	go l.reap(cleanup)
	return l
}

func parseProxies(specs []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, spec := range specs {
		if _, ipnet, err := net.ParseCIDR(spec); err == nil {
			nets = append(nets, ipnet)
			continue
		}
		// Single IPs become host-length CIDRs.
		if ip := net.ParseIP(spec); ip != nil {
			bits := 128
			if ip.To4() != nil {
				bits = 32
			}
			mask := net.CIDRMask(bits, bits)
			nets = append(nets, &net.IPNet{IP: ip, Mask: mask})
		}
	}
	return nets
}

// Middleware rejects requests exceeding the per-IP rate with a 429.
func (l *IPRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.limiterFor(l.clientIP(r)).Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *IPRateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[ip]
	if !ok {
		if len(l.entries) >= maxTrackedIPs {
			l.evictOldestLocked()
		}
		entry = &ipEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (l *IPRateLimiter) evictOldestLocked() {
	var oldestIP string
	var oldest time.Time
	for ip, entry := range l.entries {
		if oldestIP == "" || entry.lastSeen.Before(oldest) {
			oldestIP = ip
			oldest = entry.lastSeen
		}
	}
	if oldestIP != "" {
		delete(l.entries, oldestIP)
	}
}

func (l *IPRateLimiter) reap(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-l.idleTTL)
		l.mu.Lock()
		for ip, entry := range l.entries {
			if entry.lastSeen.Before(cutoff) {
				delete(l.entries, ip)
			}
		}
		l.mu.Unlock()
	}
}

// clientIP resolves the address to rate-limit on. Forwarding headers are
// honored only when the direct peer is a trusted proxy (or no proxy list is
// configured); otherwise the peer address itself is used.
func (l *IPRateLimiter) clientIP(r *http.Request) string {
	peer := parseAddr(r.RemoteAddr)

	if len(l.proxies) > 0 && !l.trusts(peer) {
		return peer.String()
	}

	// X-Forwarded-For lists client, proxy1, proxy2; the leftmost entry is
	// the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	return peer.String()
}

func (l *IPRateLimiter) trusts(ip net.IP) bool {
	for _, ipnet := range l.proxies {
		if ipnet.Contains(ip) {
			return true
		}
	}
	return false
}

func parseAddr(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}
