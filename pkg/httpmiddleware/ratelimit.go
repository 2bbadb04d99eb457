package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	// Requests allowed per window for a single client.
	Requests int `yaml:"requests"`
	// Window is the fixed window length.
	Window time.Duration `yaml:"window"`
	// CleanupInterval is how often idle client counters are dropped.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRateLimitConfig allows 100 requests per minute per client.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests:        100,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

// rateLimiter is a fixed-window counter keyed by client IP.
type rateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	clients map[string]*clientWindow
	now     func() time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	return &rateLimiter{
		cfg:     cfg,
		clients: make(map[string]*clientWindow),
		now:     time.Now,
	}
}

// allow reports whether the client may proceed and how many requests remain
// in the current window.
func (rl *rateLimiter) allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cw, ok := rl.clients[key]
	if !ok || now.Sub(cw.windowStart) >= rl.cfg.Window {
		cw = &clientWindow{windowStart: now}
		rl.clients[key] = cw
	}

	if cw.count >= rl.cfg.Requests {
		return false, 0
	}
	cw.count++
	return true, rl.cfg.Requests - cw.count
}

// cleanup drops counters whose window expired before the last tick.
func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, cw := range rl.clients {
		if now.Sub(cw.windowStart) >= rl.cfg.Window {
			delete(rl.clients, key)
		}
	}
}

// RateLimit returns a middleware limiting each client IP to cfg.Requests
// per cfg.Window. A cleanup goroutine runs until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)

	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanup()
			}
		}
	}()

	limit := strconv.Itoa(cfg.Requests)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining := rl.allow(clientKey(r))

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies a client by remote IP, falling back to the whole
// RemoteAddr when it has no port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
