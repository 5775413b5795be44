package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/telemetry/logger"
)

// Stop timing.
const (
	DefaultStopTimeout = 60 * time.Second
	stopPollInterval   = 200 * time.Millisecond
	outputTailBytes    = 16 << 10
)

// ExecController runs nodes as child processes of the local host.
type ExecController struct {
	layout      Layout
	installDir  string
	scanner     *LogScanner
	logger      logger.Logger
	stopTimeout time.Duration

	mu    sync.Mutex
	procs map[string]*execHandle
}

// ExecOption configures an ExecController.
type ExecOption func(*ExecController)

// WithLogScanner replaces the default log scanner.
func WithLogScanner(s *LogScanner) ExecOption {
	return func(c *ExecController) {
		c.scanner = s
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) ExecOption {
	return func(c *ExecController) {
		c.logger = l
	}
}

// WithStopTimeout bounds how long Stop waits for a process to exit.
func WithStopTimeout(d time.Duration) ExecOption {
	return func(c *ExecController) {
		c.stopTimeout = d
	}
}

// NewExecController creates a controller for the nodes of one cluster.
func NewExecController(layout Layout, installDir string, opts ...ExecOption) *ExecController {
	c := &ExecController{
		layout:      layout,
		installDir:  installDir,
		logger:      logger.Default(),
		stopTimeout: DefaultStopTimeout,
		procs:       make(map[string]*execHandle),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scanner == nil {
		c.scanner = NewLogScanner(WithScannerLogger(c.logger))
	}
	return c
}

// execHandle is a process started by this controller.
type execHandle struct {
	pid        int
	stdoutPath string
	stderrPath string
	exited     chan struct{}
}

func (h *execHandle) PID() int {
	return h.pid
}

func (h *execHandle) Output() string {
	var b strings.Builder
	for _, p := range []string{h.stdoutPath, h.stderrPath} {
		data, err := readTail(p, outputTailBytes)
		if err != nil || len(data) == 0 {
			continue
		}
		b.Write(data)
		if !strings.HasSuffix(string(data), "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (h *execHandle) hasExited() bool {
	select {
	case <-h.exited:
		return true
	default:
		return false
	}
}

// Launch starts the node in the foreground of a new process group so
// that interrupting ccm does not take the node down with it.
func (c *ExecController) Launch(ctx context.Context, node domain.Node, opts LaunchOptions) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bin := filepath.Join(c.installDir, "bin", "cassandra")
	if _, err := os.Stat(bin); err != nil {
		return nil, domain.ErrProcess.WithDetailsf("launcher %s", bin).WithCause(err)
	}

	logDir := c.layout.LogDir(node.Name)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, domain.ErrProcess.WithDetailsf("log dir for %s", node.Name).WithCause(err)
	}

	stdout, err := os.OpenFile(c.layout.StdoutFile(node.Name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, domain.ErrProcess.WithCause(err)
	}
	defer stdout.Close()
	stderr, err := os.OpenFile(c.layout.StderrFile(node.Name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, domain.ErrProcess.WithCause(err)
	}
	defer stderr.Close()

	cmd := exec.Command(bin, "-f")
	cmd.Dir = c.layout.NodeDir(node.Name)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = c.environment(node, opts)
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return nil, domain.ErrProcess.WithDetailsf("start %s", node.Name).WithCause(err)
	}

	h := &execHandle{
		pid:        cmd.Process.Pid,
		stdoutPath: c.layout.StdoutFile(node.Name),
		stderrPath: c.layout.StderrFile(node.Name),
		exited:     make(chan struct{}),
	}
	// Reap the child so a dead node is not mistaken for a zombie that
	// still answers signals.
	go func() {
		_ = cmd.Wait()
		close(h.exited)
	}()

	if err := os.WriteFile(c.layout.PidFile(node.Name), []byte(strconv.Itoa(h.pid)+"\n"), 0o644); err != nil {
		c.logger.Warn("cannot write pid file", "node", node.Name, "error", err)
	}

	c.mu.Lock()
	c.procs[node.Name] = h
	c.mu.Unlock()

	c.logger.Debug("node process launched", "node", node.Name, "pid", h.pid)
	return h, nil
}

func (c *ExecController) environment(node domain.Node, opts LaunchOptions) []string {
	env := os.Environ()
	env = append(env,
		"CASSANDRA_HOME="+c.installDir,
		"CASSANDRA_CONF="+c.layout.ConfDir(node.Name),
		"CASSANDRA_LOG_DIR="+c.layout.LogDir(node.Name),
		"CASSANDRA_INCLUDE="+filepath.Join(c.layout.ConfDir(node.Name), "cassandra.in.sh"),
	)

	jvm := []string{"-Dcassandra.jmx.local.port=" + strconv.Itoa(node.JMXPort)}
	if node.RemoteDebugPort > 0 {
		jvm = append(jvm, fmt.Sprintf("-agentlib:jdwp=transport=dt_socket,server=y,suspend=n,address=%s:%d",
			node.Address(), node.RemoteDebugPort))
	}
	jvm = append(jvm, opts.JVMArgs...)
	env = append(env, "JVM_EXTRA_OPTS="+strings.Join(jvm, " "))

	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// IsAlive reports whether the node process is running.
func (c *ExecController) IsAlive(node domain.Node) bool {
	c.mu.Lock()
	h := c.procs[node.Name]
	c.mu.Unlock()
	if h != nil && h.hasExited() {
		return false
	}

	pid, err := c.readPid(node.Name)
	if err != nil {
		return false
	}
	return processAlive(pid)
}

// Mark returns the end of the node log.
func (c *ExecController) Mark(node domain.Node) (Mark, error) {
	return MarkOf(c.layout.LogFile(node.Name))
}

// ScanFrom scans the node log. When this controller launched the node,
// the scan ends early with ErrProcessExited if the process dies.
func (c *ExecController) ScanFrom(ctx context.Context, node domain.Node, from Mark, match func(string) bool, timeout time.Duration) (bool, error) {
	c.mu.Lock()
	h := c.procs[node.Name]
	c.mu.Unlock()

	var alive func() bool
	if h != nil {
		alive = func() bool { return !h.hasExited() }
	}
	return c.scanner.Scan(ctx, c.layout.LogFile(node.Name), from, match, timeout, alive)
}

// Stop terminates the node: SIGTERM when gently, SIGKILL otherwise.
// With wait, it blocks until the process is gone or the stop timeout
// elapses.
func (c *ExecController) Stop(ctx context.Context, node domain.Node, gently, wait bool) (bool, error) {
	if !c.IsAlive(node) {
		return false, nil
	}
	pid, err := c.readPid(node.Name)
	if err != nil {
		return false, nil
	}

	if gently {
		err = terminate(pid)
	} else {
		err = kill(pid)
	}
	if err != nil {
		return false, domain.ErrProcess.WithDetailsf("signal %s (pid %d)", node.Name, pid).WithCause(err)
	}

	if wait {
		if err := c.waitExit(ctx, node); err != nil {
			return true, err
		}
	}
	if !c.IsAlive(node) {
		_ = os.Remove(c.layout.PidFile(node.Name))
	}
	c.logger.Debug("node stopped", "node", node.Name, "pid", pid, "gently", gently)
	return true, nil
}

func (c *ExecController) waitExit(ctx context.Context, node domain.Node) error {
	ctx, cancel := context.WithTimeout(ctx, c.stopTimeout)
	defer cancel()

	ticker := time.NewTicker(stopPollInterval)
	defer ticker.Stop()
	for c.IsAlive(node) {
		select {
		case <-ctx.Done():
			return domain.ErrProcess.WithDetailsf("%s still running after %s", node.Name, c.stopTimeout).WithCause(ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}

func (c *ExecController) readPid(node string) (int, error) {
	data, err := os.ReadFile(c.layout.PidFile(node))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, errors.New("malformed pid file")
	}
	return pid, nil
}

// readTail returns at most n bytes from the end of path.
func readTail(path string, n int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	off := fi.Size() - n
	if off < 0 {
		off = 0
	}
	buf := make([]byte, fi.Size()-off)
	_, err = f.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf, nil
}
