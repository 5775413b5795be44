// Package shutdown ties command lifetimes to interrupt signals and runs
// cleanup hooks on the way out.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler cancels a context on SIGINT or SIGTERM and runs hooks when the
// command finishes.
type Handler struct {
	timeout time.Duration
	signals []os.Signal

	mu    sync.Mutex
	hooks []func(context.Context) error
	ran   bool
}

// NewHandler creates a handler giving hooks timeout to complete.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
}

// OnShutdown registers a hook. Hooks run in reverse registration order.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Context returns a child of parent that is cancelled by the first
// interrupt. A second interrupt restores the default behaviour and
// kills the process.
func (h *Handler) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, h.signals...)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

// Run executes the hooks once and joins their errors.
func (h *Handler) Run() error {
	h.mu.Lock()
	if h.ran {
		h.mu.Unlock()
		return nil
	}
	h.ran = true
	hooks := append([]func(context.Context) error(nil), h.hooks...)
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
