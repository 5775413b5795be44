package process

import (
	"context"
	"errors"
	"time"

	"github.com/yndnr/ccm-go/internal/core/domain"
)

// Mark is a byte offset in a node log. Scans from a mark only see
// output appended after it.
type Mark int64

// ErrProcessExited is returned by a scan when the watched process died
// before the expected line appeared.
var ErrProcessExited = errors.New("process exited")

// Handle refers to a launched node process.
type Handle interface {
	// PID returns the operating system process ID.
	PID() int
	// Output returns captured stdout and stderr, most recent last.
	Output() string
}

// LaunchOptions tune a single node launch.
type LaunchOptions struct {
	// JVMArgs are appended to the JVM command line.
	JVMArgs []string
	// Env holds extra environment variables for the process.
	Env map[string]string
}

// Controller starts, stops and observes node processes.
type Controller interface {
	Launch(ctx context.Context, node domain.Node, opts LaunchOptions) (Handle, error)
	IsAlive(node domain.Node) bool
	Mark(node domain.Node) (Mark, error)
	// ScanFrom blocks until match accepts a line appended after from,
	// returning true. It returns false with a nil error when timeout
	// elapses first, and ctx.Err() when ctx is cancelled.
	ScanFrom(ctx context.Context, node domain.Node, from Mark, match func(line string) bool, timeout time.Duration) (bool, error)
	// Stop stops the node and reports whether a running process was
	// actually stopped.
	Stop(ctx context.Context, node domain.Node, gently, wait bool) (bool, error)
	// Nodetool runs the administration tool against a running node and
	// returns its combined output.
	Nodetool(ctx context.Context, node domain.Node, args ...string) (string, error)
}

// Stopper is the subset of Controller needed to tear nodes down.
type Stopper interface {
	IsAlive(node domain.Node) bool
	Stop(ctx context.Context, node domain.Node, gently, wait bool) (bool, error)
}
