package orchestrator

import (
	"context"
	"time"

	"github.com/yndnr/ccm-go/internal/process"
	"github.com/yndnr/ccm-go/internal/telemetry/logger"
	"github.com/yndnr/ccm-go/internal/telemetry/metric"
)

// Orchestrator drives node processes through a process.Controller.
type Orchestrator struct {
	ctrl    process.Controller
	logger  logger.Logger
	metrics *metric.Registry
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithMetrics records start and stop metrics into reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(o *Orchestrator) {
		o.metrics = reg
	}
}

// New creates an orchestrator.
func New(ctrl process.Controller, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ctrl:   ctrl,
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
