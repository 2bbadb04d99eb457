// Package health provides liveness and readiness probe endpoints backed by
// periodically executed checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes a single dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	fn       CheckFunc

	lastErr atomic.Pointer[error]
}

func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(checkCtx)
	c.lastErr.Store(&err)
}

func (c *check) err() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Health runs registered checks in the background and serves their combined
// state over HTTP. Liveness reports only process health; readiness also
// requires SetReady(true) and all checks passing.
type Health struct {
	mu     sync.Mutex
	checks []*check
	ready  atomic.Bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New() *Health {
	return &Health{}
}

// Register adds a named check executed every interval with the given
// timeout. Must be called before Start.
func (h *Health) Register(name string, interval, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, &check{
		name:     name,
		interval: interval,
		timeout:  timeout,
		fn:       fn,
	})
}

// SetReady flips the readiness gate. The server calls it once startup
// completes and again with false during shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Start launches one goroutine per registered check. Each check runs
// immediately and then on its interval until Stop is called.
func (h *Health) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.checks {
		h.wg.Add(1)
		go func(c *check) {
			defer h.wg.Done()

			c.run(ctx)
			ticker := time.NewTicker(c.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}(c)
	}
}

// Stop terminates the background checks and waits for them to exit.
func (h *Health) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint always reports 200 while the process is able to serve.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, http.StatusOK, probeResponse{Status: "up"})
}

// ReadyEndpoint reports 200 only when the readiness gate is open and every
// registered check last succeeded.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	resp := probeResponse{Status: "up", Checks: map[string]string{}}
	code := http.StatusOK

	if !h.ready.Load() {
		resp.Status = "down"
		code = http.StatusServiceUnavailable
	}

	h.mu.Lock()
	checks := h.checks
	h.mu.Unlock()

	for _, c := range checks {
		if err := c.err(); err != nil {
			resp.Checks[c.name] = err.Error()
			resp.Status = "down"
			code = http.StatusServiceUnavailable
		} else {
			resp.Checks[c.name] = "ok"
		}
	}

	writeProbe(w, code, resp)
}

func writeProbe(w http.ResponseWriter, code int, resp probeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
