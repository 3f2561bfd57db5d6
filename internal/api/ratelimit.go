package api

import (
	"golang.org/x/time/rate"
	"net"
	"net/http"
	"sync"
	"time"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// walletLimiter keeps one token bucket per wallet, falling back to the remote
// address for anonymous requests.
type walletLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

func newWalletLimiter(rps float64, burst int) *walletLimiter {
	if burst <= 0 {
		burst = 1
	}

	return &walletLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(rps),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

func (l *walletLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

func (l *walletLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.idle)
	for key, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

func (l *walletLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		if !l.Allow(clientKey(r)) {
			writeError(w, ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if wallet := r.Header.Get(WalletHeader); wallet != "" {
		return "wallet:" + wallet
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return "ip:" + host
}
