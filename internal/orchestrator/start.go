package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/process"
	"github.com/yndnr/ccm-go/internal/telemetry/logger"
	"github.com/yndnr/ccm-go/internal/telemetry/metric"
)

// Log markers.
const (
	ReadyMarker       = "Listening for thrift clients..."
	BinaryProtoMarker = "Starting listening for CQL clients"
)

// Start defaults.
const (
	DefaultReadyTimeout = 10 * time.Minute
	DefaultAliveTimeout = 2 * time.Minute
	DefaultNoWaitDelay  = 2 * time.Second
	DefaultSettleDelay  = 200 * time.Millisecond

	// Gossip output of older releases is too irregular to check.
	aliveCheckSince = "0.8"
)

// Start attempt outcomes, used as the "result" metric label.
const (
	resultReady    = "ready"
	resultNotReady = "not_ready"
	resultFailed   = "failed"
)

// Status is the outcome of a start attempt for one node.
type Status int

const (
	StatusPending Status = iota
	StatusLaunched
	StatusStarted
	StatusFailedToLaunch
	StatusFailedReadiness
	StatusFailedLiveness
	StatusFailedAliveness
	StatusFailedWireProtocol
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusLaunched:
		return "launched"
	case StatusStarted:
		return "started"
	case StatusFailedToLaunch:
		return "failed_to_launch"
	case StatusFailedReadiness:
		return "failed_readiness"
	case StatusFailedLiveness:
		return "failed_liveness"
	case StatusFailedAliveness:
		return "failed_aliveness"
	case StatusFailedWireProtocol:
		return "failed_wire_protocol"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StartOptions tune a start attempt. Zero durations take the defaults.
type StartOptions struct {
	// NoWait skips every readiness check and only pauses NoWaitDelay to
	// catch early crashes.
	NoWait      bool
	NoWaitDelay time.Duration

	// ReadyTimeout bounds the wait for each node's ready marker and
	// native protocol marker.
	ReadyTimeout time.Duration
	// AliveTimeout bounds the wait for each peer aliveness line.
	AliveTimeout time.Duration

	// WaitForBinaryProto also waits for the native protocol listener
	// and then pauses SettleDelay.
	WaitForBinaryProto bool
	SettleDelay        time.Duration

	// Version of the database; empty means the newest.
	Version string

	JVMArgs []string
}

func (o StartOptions) withDefaults() StartOptions {
	if o.NoWaitDelay <= 0 {
		o.NoWaitDelay = DefaultNoWaitDelay
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = DefaultReadyTimeout
	}
	if o.AliveTimeout <= 0 {
		o.AliveTimeout = DefaultAliveTimeout
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	return o
}

// NodeStart records what happened to one node during a start.
type NodeStart struct {
	Node   domain.Node
	Handle process.Handle // nil unless launched
	Mark   process.Mark
	Status Status
}

// Result is the outcome of Start.
type Result struct {
	// AttemptID identifies the attempt in logs.
	AttemptID string
	// Ready is false when some node never logged its ready marker.
	// Nodes launched so far are left running.
	Ready bool
	// Reason explains a false Ready. It matches domain.ErrReadinessTimeout.
	Reason error
	// Nodes lists the nodes this attempt launched or tried to launch.
	Nodes []NodeStart
	// Skipped lists nodes that were already running.
	Skipped []domain.Node
}

// Start launches every node that is not running and waits for the
// cluster to converge.
func (o *Orchestrator) Start(ctx context.Context, nodes []domain.Node, opts StartOptions) (*Result, error) {
	opts = opts.withDefaults()
	begin := time.Now()

	res := &Result{AttemptID: ulid.Make().String()}
	ctx = logger.WithAttemptID(logger.WithLogger(ctx, o.logger), res.AttemptID)
	log := logger.L(ctx)

	err := o.start(ctx, nodes, opts, res)

	outcome := resultReady
	switch {
	case err != nil:
		outcome = resultFailed
		log.Error("cluster start failed", "error", err)
	case !res.Ready:
		outcome = resultNotReady
		log.Warn("cluster not ready", "reason", res.Reason)
	default:
		log.Info("cluster started", "nodes", len(res.Nodes), "elapsed", time.Since(begin))
	}
	if o.metrics != nil {
		o.metrics.ObserveStart(outcome, time.Since(begin))
	}
	return res, err
}

func (o *Orchestrator) start(ctx context.Context, nodes []domain.Node, opts StartOptions, res *Result) error {
	log := logger.L(ctx)

	for _, n := range nodes {
		if o.ctrl.IsAlive(n) {
			res.Skipped = append(res.Skipped, n)
			continue
		}
		res.Nodes = append(res.Nodes, NodeStart{Node: n})
	}
	starts := res.Nodes
	log.Debug("starting nodes", "launch", len(starts), "skipped", len(res.Skipped))

	// The mark is taken before launch so that output of earlier runs is
	// never mistaken for this one.
	for i := range starts {
		m, err := o.ctrl.Mark(starts[i].Node)
		if err != nil {
			starts[i].Status = StatusFailedToLaunch
			return o.fail(&StartupError{Node: starts[i].Node.Name, Phase: metric.PhaseLaunch, Err: err})
		}
		starts[i].Mark = m
	}

	if err := o.launch(ctx, starts, opts); err != nil {
		return err
	}

	if opts.NoWait {
		if err := sleep(ctx, opts.NoWaitDelay); err != nil {
			return err
		}
	} else {
		ready, err := o.waitReady(ctx, starts, opts.ReadyTimeout)
		if err != nil {
			return err
		}
		if ready != nil {
			res.Reason = ready
			if o.metrics != nil {
				o.metrics.StartFailures.WithLabelValues(metric.PhaseReadiness).Inc()
			}
			return nil
		}
	}

	for i := range starts {
		if !o.ctrl.IsAlive(starts[i].Node) {
			starts[i].Status = StatusFailedLiveness
			return o.fail(&StartupError{
				Node:   starts[i].Node.Name,
				Phase:  metric.PhaseLiveness,
				Output: starts[i].Handle.Output(),
				Err:    errors.New("process exited after launch"),
			})
		}
	}

	if !opts.NoWait && domain.VersionAtLeast(opts.Version, aliveCheckSince) {
		if err := o.waitAlive(ctx, starts, opts.AliveTimeout); err != nil {
			return err
		}
	}

	if opts.WaitForBinaryProto {
		if err := o.waitBinaryProto(ctx, starts, opts.ReadyTimeout); err != nil {
			return err
		}
		if err := sleep(ctx, opts.SettleDelay); err != nil {
			return err
		}
	}

	for i := range starts {
		starts[i].Status = StatusStarted
	}
	res.Ready = true
	return nil
}

func (o *Orchestrator) launch(ctx context.Context, starts []NodeStart, opts StartOptions) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range starts {
		g.Go(func() error {
			n := starts[i].Node
			h, err := o.ctrl.Launch(gctx, n, process.LaunchOptions{JVMArgs: opts.JVMArgs})
			if err != nil {
				starts[i].Status = StatusFailedToLaunch
				return &StartupError{Node: n.Name, Phase: metric.PhaseLaunch, Err: err}
			}
			starts[i].Handle = h
			starts[i].Status = StatusLaunched
			if o.metrics != nil {
				o.metrics.NodesLaunched.Inc()
			}
			logger.L(ctx).Debug("node launched", "node", n.Name, "pid", h.PID())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return o.fail(err)
	}
	return nil
}

// errNotFound stops sibling scans once one of them gave up.
var errNotFound = errors.New("marker not found")

// waitReady returns a non-nil reason when some node did not become
// ready, and an error only when ctx was cancelled.
func (o *Orchestrator) waitReady(ctx context.Context, starts []NodeStart, timeout time.Duration) (reason, err error) {
	reasons := make([]error, len(starts))

	g, gctx := errgroup.WithContext(ctx)
	for i := range starts {
		g.Go(func() error {
			ok, err := o.scan(gctx, starts[i], contains(ReadyMarker), timeout)
			switch {
			case ok:
				return nil
			case err == nil:
				reasons[i] = domain.ErrReadinessTimeout.WithDetailsf("node %s after %s", starts[i].Node.Name, timeout).
					WithCause(context.DeadlineExceeded)
			case errors.Is(err, process.ErrProcessExited):
				reasons[i] = exitedReason(starts[i]).WithCause(err)
			case gctx.Err() != nil:
				return err
			default:
				return &StartupError{Node: starts[i].Node.Name, Phase: metric.PhaseReadiness, Err: err}
			}
			starts[i].Status = StatusFailedReadiness
			return errNotFound
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, errNotFound) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, o.fail(err)
	}
	for _, r := range reasons {
		if r != nil {
			return r, nil
		}
	}
	return nil, nil
}

// waitAlive checks every ordered pair (a, b), a != b: a's log must show
// b coming up after a's mark.
func (o *Orchestrator) waitAlive(ctx context.Context, starts []NodeStart, timeout time.Duration) error {
	var mu sync.Mutex
	failed := make([]bool, len(starts))

	g, gctx := errgroup.WithContext(ctx)
	for a := range starts {
		for b := range starts {
			if a == b {
				continue
			}
			g.Go(func() error {
				peer := starts[b].Node
				ok, err := o.scan(gctx, starts[a], aliveMatcher(peer.Address()), timeout)
				if err != nil {
					return err
				}
				if !ok {
					mu.Lock()
					failed[a] = true
					mu.Unlock()
					return &StartupError{
						Node:  starts[a].Node.Name,
						Phase: metric.PhaseAliveness,
						Err:   fmt.Errorf("did not see %s (%s) come up within %s: %w", peer.Name, peer.Address(), timeout, context.DeadlineExceeded),
					}
				}
				return nil
			})
		}
	}
	err := o.wait(ctx, g)
	for i, f := range failed {
		if f {
			starts[i].Status = StatusFailedAliveness
		}
	}
	return err
}

func (o *Orchestrator) waitBinaryProto(ctx context.Context, starts []NodeStart, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range starts {
		g.Go(func() error {
			ok, err := o.scan(gctx, starts[i], contains(BinaryProtoMarker), timeout)
			if err != nil {
				return err
			}
			if !ok {
				starts[i].Status = StatusFailedWireProtocol
				return &StartupError{
					Node:  starts[i].Node.Name,
					Phase: metric.PhaseWireProtocol,
					Err:   fmt.Errorf("no native protocol listener within %s: %w", timeout, context.DeadlineExceeded),
				}
			}
			return nil
		})
	}
	return o.wait(ctx, g)
}

// wait joins a phase. Cancellation of ctx wins over sibling errors.
func (o *Orchestrator) wait(ctx context.Context, g *errgroup.Group) error {
	err := g.Wait()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var se *StartupError
	if !errors.As(err, &se) {
		err = &StartupError{Phase: "scan", Err: err}
	}
	return o.fail(err)
}

func (o *Orchestrator) scan(ctx context.Context, s NodeStart, match func(string) bool, timeout time.Duration) (bool, error) {
	begin := time.Now()
	ok, err := o.ctrl.ScanFrom(ctx, s.Node, s.Mark, match, timeout)
	if o.metrics != nil && err == nil {
		o.metrics.ScanDuration.Observe(time.Since(begin).Seconds())
	}
	return ok, err
}

// fail counts a startup failure by phase and returns err unchanged.
func (o *Orchestrator) fail(err error) error {
	var se *StartupError
	if o.metrics != nil && errors.As(err, &se) {
		o.metrics.StartFailures.WithLabelValues(se.Phase).Inc()
	}
	return err
}

// exitedReason names a node that died before its ready marker, with the
// last line it printed.
func exitedReason(s NodeStart) *domain.DomainError {
	last := ""
	if s.Handle != nil {
		last = process.LastLine(s.Handle.Output())
	}
	if last == "" {
		return domain.ErrReadinessTimeout.WithDetailsf("node %s: process exited before ready", s.Node.Name)
	}
	return domain.ErrReadinessTimeout.WithDetailsf("node %s: process exited before ready: %s", s.Node.Name, last)
}

func contains(marker string) func(string) bool {
	return func(line string) bool {
		return strings.Contains(line, marker)
	}
}

// aliveMatcher matches gossip lines such as
// "InetAddress /127.0.0.2 is now UP".
func aliveMatcher(address string) func(string) bool {
	re := regexp.MustCompile("/" + regexp.QuoteMeta(address) + `\b.* is now UP`)
	return re.MatchString
}
