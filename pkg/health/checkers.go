package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger matches connection pools exposing a Ping method, such as
// pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck probes a database pool.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// GoroutineCountCheck fails when the process exceeds threshold goroutines,
// which usually indicates a leak.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(ctx context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("too many goroutines: %d > %d", n, threshold)
		}
		return nil
	}
}
