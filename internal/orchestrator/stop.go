package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/telemetry/logger"
)

// Stop stops every node independently and returns, in input order, the
// nodes that were not running. Stopping a stopped cluster is a no-op.
func (o *Orchestrator) Stop(ctx context.Context, nodes []domain.Node, wait, gently bool) ([]domain.Node, error) {
	mode := "forced"
	if gently {
		mode = "gentle"
	}
	log := logger.L(logger.WithLogger(ctx, o.logger))

	stopped := make([]bool, len(nodes))
	errs := make([]error, len(nodes))

	var g errgroup.Group
	for i, n := range nodes {
		g.Go(func() error {
			ok, err := o.ctrl.Stop(ctx, n, gently, wait)
			if err != nil {
				errs[i] = fmt.Errorf("stop %s: %w", n.Name, err)
				return nil
			}
			stopped[i] = ok
			if ok && o.metrics != nil {
				o.metrics.NodesStopped.WithLabelValues(mode).Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	var notRunning []domain.Node
	for i, n := range nodes {
		if errs[i] == nil && !stopped[i] {
			notRunning = append(notRunning, n)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		log.Error("stop failed", "error", err)
	} else {
		log.Debug("nodes stopped", "mode", mode, "not_running", len(notRunning))
	}
	return notRunning, err
}
