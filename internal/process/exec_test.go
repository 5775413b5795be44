//go:build unix

package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/telemetry/logger"
)

// writeLauncher installs a fake bin/cassandra shell script.
func writeLauncher(t *testing.T, script string) string {
	t.Helper()
	install := t.TempDir()
	bin := filepath.Join(install, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bin, "cassandra"), []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return install
}

func testNode(name string) domain.Node {
	return domain.Node{
		Name: name,
		Interfaces: domain.Interfaces{
			Storage: domain.Endpoint{Host: "127.0.0.1", Port: 7000},
			Thrift:  domain.Endpoint{Host: "127.0.0.1", Port: 9160},
		},
		JMXPort: 7100,
	}
}

func newTestController(t *testing.T, install string) *ExecController {
	layout := Layout{ClusterDir: t.TempDir()}
	return NewExecController(layout, install,
		WithLogger(logger.Nop()),
		WithLogScanner(newTestScanner()),
		WithStopTimeout(5*time.Second),
	)
}

func TestExecController_LaunchScanStop(t *testing.T) {
	install := writeLauncher(t, `echo "Listening for thrift clients..." >> "$CASSANDRA_LOG_DIR/system.log"
exec sleep 30
`)
	c := newTestController(t, install)
	node := testNode("node1")
	ctx := context.Background()

	if c.IsAlive(node) {
		t.Fatal("IsAlive() before launch = true")
	}
	mark, err := c.Mark(node)
	if err != nil || mark != 0 {
		t.Fatalf("Mark() = %d, %v", mark, err)
	}

	h, err := c.Launch(ctx, node, LaunchOptions{})
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if h.PID() <= 0 {
		t.Errorf("PID() = %d", h.PID())
	}

	ok, err := c.ScanFrom(ctx, node, mark, func(l string) bool {
		return strings.Contains(l, "Listening for thrift clients")
	}, 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("ScanFrom() = %v, %v", ok, err)
	}
	if !c.IsAlive(node) {
		t.Fatal("IsAlive() after launch = false")
	}

	stopped, err := c.Stop(ctx, node, true, true)
	if err != nil || !stopped {
		t.Fatalf("Stop() = %v, %v", stopped, err)
	}
	if c.IsAlive(node) {
		t.Error("IsAlive() after stop = true")
	}
	if _, err := os.Stat(c.layout.PidFile(node.Name)); !os.IsNotExist(err) {
		t.Error("pid file not removed after stop")
	}

	stopped, err = c.Stop(ctx, node, true, true)
	if err != nil || stopped {
		t.Errorf("second Stop() = %v, %v; want false, nil", stopped, err)
	}
}

func TestExecController_ProcessDiesDuringScan(t *testing.T) {
	install := writeLauncher(t, `echo "fatal: bad config" >&2
exit 1
`)
	c := newTestController(t, install)
	node := testNode("node1")

	h, err := c.Launch(context.Background(), node, LaunchOptions{})
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}

	_, err = c.ScanFrom(context.Background(), node, 0, func(string) bool { return false }, 10*time.Second)
	if !errors.Is(err, ErrProcessExited) {
		t.Fatalf("ScanFrom() error = %v, want ErrProcessExited", err)
	}
	if c.IsAlive(node) {
		t.Error("IsAlive() = true for exited process")
	}
	if out := h.Output(); !strings.Contains(out, "fatal: bad config") {
		t.Errorf("Output() = %q, want captured stderr", out)
	}
}

func TestExecController_Environment(t *testing.T) {
	install := writeLauncher(t, `env > "$CASSANDRA_LOG_DIR/env.txt"
`)
	c := newTestController(t, install)
	node := testNode("node1")
	node.RemoteDebugPort = 2100

	if _, err := c.Launch(context.Background(), node, LaunchOptions{
		JVMArgs: []string{"-Xmx256M"},
		Env:     map[string]string{"EXTRA": "1"},
	}); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}

	envFile := filepath.Join(c.layout.LogDir(node.Name), "env.txt")
	deadline := time.Now().Add(5 * time.Second)
	for c.IsAlive(node) && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	data, err := os.ReadFile(envFile)
	if err != nil {
		t.Fatalf("launcher did not record its environment: %v", err)
	}

	env := string(data)
	for _, want := range []string{
		"CASSANDRA_HOME=" + install,
		"CASSANDRA_CONF=" + c.layout.ConfDir(node.Name),
		"EXTRA=1",
		"-Xmx256M",
		"address=127.0.0.1:2100",
		"-Dcassandra.jmx.local.port=7100",
	} {
		if !strings.Contains(env, want) {
			t.Errorf("environment missing %q", want)
		}
	}
}

func TestExecController_MissingLauncher(t *testing.T) {
	c := newTestController(t, t.TempDir())

	_, err := c.Launch(context.Background(), testNode("node1"), LaunchOptions{})
	if !errors.Is(err, domain.ErrProcess) {
		t.Errorf("Launch() error = %v, want ErrProcess", err)
	}
}

func TestExecController_Nodetool(t *testing.T) {
	install := writeLauncher(t, "exit 0\n")
	tool := filepath.Join(install, "bin", "nodetool")
	script := `#!/bin/sh
echo "args: $*"
[ "$5" = "fail" ] && { echo "nodetool: connection refused" >&2; exit 1; }
exit 0
`
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	c := newTestController(t, install)
	node := testNode("node1")

	out, err := c.Nodetool(context.Background(), node, "flush")
	if err != nil {
		t.Fatalf("Nodetool() error = %v", err)
	}
	if want := "args: -h localhost -p 7100 flush"; !strings.Contains(out, want) {
		t.Errorf("Nodetool() output = %q, want %q", out, want)
	}

	out, err = c.Nodetool(context.Background(), node, "fail")
	if !errors.Is(err, domain.ErrProcess) {
		t.Fatalf("Nodetool() error = %v, want ErrProcess", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error = %q, want last output line", err)
	}
	if !strings.Contains(out, "connection refused") {
		t.Errorf("output = %q, want stderr captured", out)
	}
}

func TestExecController_NodetoolMissing(t *testing.T) {
	c := newTestController(t, t.TempDir())
	_, err := c.Nodetool(context.Background(), testNode("node1"), "flush")
	if !errors.Is(err, domain.ErrProcess) {
		t.Errorf("Nodetool() error = %v, want ErrProcess", err)
	}
}
