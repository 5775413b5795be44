package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/telemetry/logger"
)

// ToolRun is the outcome of one nodetool invocation.
type ToolRun struct {
	Node   domain.Node
	Output string
	Err    error
}

// Nodetool runs a nodetool command on every running node, one node at a
// time and in input order. Stopped nodes are skipped. A failure on one
// node does not prevent the others from running; the failures are
// joined into the returned error.
func (o *Orchestrator) Nodetool(ctx context.Context, nodes []domain.Node, args ...string) ([]ToolRun, error) {
	if len(args) == 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("no nodetool command")
	}
	log := logger.L(logger.WithLogger(ctx, o.logger))

	var (
		runs []ToolRun
		errs []error
	)
	for _, n := range nodes {
		if !o.ctrl.IsAlive(n) {
			continue
		}
		out, err := o.ctrl.Nodetool(ctx, n, args...)
		runs = append(runs, ToolRun{Node: n, Output: out, Err: err})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return runs, ctxErr
			}
			errs = append(errs, fmt.Errorf("%s: %w", n.Name, err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		log.Error("nodetool failed", "command", strings.Join(args, " "), "error", err)
	} else {
		log.Debug("nodetool done", "command", strings.Join(args, " "), "nodes", len(runs))
	}
	return runs, err
}
