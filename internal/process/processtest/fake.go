// Package processtest provides a scriptable in-memory process.Controller.
package processtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/process"
)

// Script describes how one fake node behaves.
type Script struct {
	// Alive is the current liveness of the node.
	Alive bool
	// Log holds the node log, one entry per line.
	Log []string
	// OnLaunch lines are appended to Log when the node is launched.
	OnLaunch []string
	// LaunchErr is returned by Launch.
	LaunchErr error
	// DieOnLaunch leaves the node dead right after a successful launch.
	DieOnLaunch bool
	// Output is returned by the handle's Output method.
	Output string
	// ToolOutput and ToolErr are returned by Nodetool.
	ToolOutput string
	ToolErr    error

	launched bool
}

// Fake is a process.Controller whose nodes are driven by Scripts.
// Marks are line counts. It is safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	scripts  map[string]*Script
	changed  chan struct{}
	launched []string
	stopped  []string
	tools    []string
	nextPID  int
}

var _ process.Controller = (*Fake)(nil)

// NewFake creates an empty fake controller.
func NewFake() *Fake {
	return &Fake{
		scripts: make(map[string]*Script),
		changed: make(chan struct{}),
		nextPID: 1000,
	}
}

// Script returns the script of a node, creating an empty one.
// Callers must not mutate it concurrently with the code under test.
func (f *Fake) Script(name string) *Script {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.script(name)
}

func (f *Fake) script(name string) *Script {
	s, ok := f.scripts[name]
	if !ok {
		s = &Script{}
		f.scripts[name] = s
	}
	return s
}

// AppendLog appends lines to a node log and wakes pending scans.
func (f *Fake) AppendLog(name string, lines ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.script(name)
	s.Log = append(s.Log, lines...)
	f.notify()
}

// SetAlive changes the liveness of a node.
func (f *Fake) SetAlive(name string, alive bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script(name).Alive = alive
	f.notify()
}

// Launched returns the names of launched nodes in launch order.
func (f *Fake) Launched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.launched...)
}

// Stopped returns the names of nodes actually stopped.
func (f *Fake) Stopped() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stopped...)
}

// ToolCalls returns every Nodetool invocation as "node arg...".
func (f *Fake) ToolCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tools...)
}

// notify must be called with f.mu held.
func (f *Fake) notify() {
	close(f.changed)
	f.changed = make(chan struct{})
}

type handle struct {
	pid    int
	output func() string
}

func (h handle) PID() int       { return h.pid }
func (h handle) Output() string { return h.output() }

// Launch implements process.Controller.
func (f *Fake) Launch(ctx context.Context, node domain.Node, opts process.LaunchOptions) (process.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.script(node.Name)
	if s.LaunchErr != nil {
		return nil, s.LaunchErr
	}
	f.launched = append(f.launched, node.Name)
	f.nextPID++
	s.Alive = !s.DieOnLaunch
	s.launched = true
	s.Log = append(s.Log, s.OnLaunch...)
	f.notify()

	name := node.Name
	return handle{
		pid: f.nextPID,
		output: func() string {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.script(name).Output
		},
	}, nil
}

// IsAlive implements process.Controller.
func (f *Fake) IsAlive(node domain.Node) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.script(node.Name).Alive
}

// Mark implements process.Controller.
func (f *Fake) Mark(node domain.Node) (process.Mark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return process.Mark(len(f.script(node.Name).Log)), nil
}

// ScanFrom implements process.Controller. Like the real scanner it
// blocks until a match, the timeout or cancellation, and gives up with
// process.ErrProcessExited once a node it launched is dead.
func (f *Fake) ScanFrom(ctx context.Context, node domain.Node, from process.Mark, match func(string) bool, timeout time.Duration) (bool, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	next := int(from)
	for {
		f.mu.Lock()
		s := f.script(node.Name)
		log := s.Log
		exited := s.launched && !s.Alive
		changed := f.changed
		f.mu.Unlock()

		for ; next < len(log); next++ {
			if match(log[next]) {
				return true, nil
			}
		}
		if exited {
			return false, process.ErrProcessExited
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline:
			return false, nil
		case <-changed:
		}
	}
}

// Stop implements process.Controller.
func (f *Fake) Stop(ctx context.Context, node domain.Node, gently, wait bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.script(node.Name)
	if !s.Alive {
		return false, nil
	}
	s.Alive = false
	f.stopped = append(f.stopped, node.Name)
	f.notify()
	return true, nil
}

// Nodetool implements process.Controller.
func (f *Fake) Nodetool(ctx context.Context, node domain.Node, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.script(node.Name)
	f.tools = append(f.tools, strings.Join(append([]string{node.Name}, args...), " "))
	return s.ToolOutput, s.ToolErr
}
