package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig sizes the per-client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

const (
	limiterSweepEvery = 5 * time.Minute
	limiterStaleAfter = 10 * time.Minute
)

// limiterPool hands out one token bucket per client address and
// forgets buckets idle past limiterStaleAfter so the map cannot grow
// without bound.
type limiterPool struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(cfg RateLimitConfig) *limiterPool {
	p := &limiterPool{cfg: cfg, buckets: make(map[string]*bucket)}
	go p.sweep()
	return p
}

func (p *limiterPool) get(addr string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buckets[addr]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(p.cfg.RequestsPerSecond), p.cfg.Burst)}
		p.buckets[addr] = b
	}
	b.lastSeen = time.Now()
	return b.lim
}

func (p *limiterPool) sweep() {
	for {
		time.Sleep(limiterSweepEvery)
		p.sweepOnce()
	}
}

func (p *limiterPool) sweepOnce() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for addr, b := range p.buckets {
		if time.Since(b.lastSeen) > limiterStaleAfter {
			delete(p.buckets, addr)
		}
	}
}

// RateLimiter rejects clients exceeding the configured sustained rate
// with 429 and a Retry-After hint. Buckets key on the connection
// address alone: X-Forwarded-For is spoofable and never consulted.
func RateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	pool := newLimiterPool(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lim := pool.get(clientIP(r))

			res := lim.Reserve()
			if !res.OK() {
				rejectRateLimited(w, 0)
				return
			}
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				rejectRateLimited(w, int(delay.Seconds())+1)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(lim.Tokens())))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from the peer address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rejectRateLimited writes the same code/message envelope the API
// handlers use for domain errors.
func rejectRateLimited(w http.ResponseWriter, retryAfter int) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}{http.StatusTooManyRequests, "rate limit exceeded"})
}
