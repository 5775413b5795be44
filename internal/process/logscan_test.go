package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/ccm-go/internal/telemetry/logger"
)

func newTestScanner() *LogScanner {
	return NewLogScanner(
		WithPollInterval(20*time.Millisecond),
		WithMinReadGap(time.Millisecond),
		WithScannerLogger(logger.Nop()),
	)
}

func appendFile(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(s); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func contains(s string) func(string) bool {
	return func(line string) bool { return strings.Contains(line, s) }
}

func TestLogScanner_FindsExistingLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.log")
	appendFile(t, path, "INFO starting\nINFO Listening for thrift clients...\n")

	ok, err := newTestScanner().Scan(context.Background(), path, 0, contains("Listening for thrift"), time.Second, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !ok {
		t.Error("Scan() = false, want true")
	}
}

func TestLogScanner_IgnoresOutputBeforeMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.log")
	appendFile(t, path, "INFO Listening for thrift clients...\n")

	mark, err := MarkOf(path)
	if err != nil {
		t.Fatalf("MarkOf() error = %v", err)
	}

	ok, err := newTestScanner().Scan(context.Background(), path, mark, contains("Listening for thrift"), 100*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if ok {
		t.Error("Scan() matched a line written before the mark")
	}
}

func TestLogScanner_WaitsForAppendedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.log")

	go func() {
		time.Sleep(50 * time.Millisecond)
		appendFile(t, path, "INFO booting\n")
		time.Sleep(50 * time.Millisecond)
		appendFile(t, path, "INFO InetAddress /127.0.0.2 is now UP\n")
	}()

	ok, err := newTestScanner().Scan(context.Background(), path, 0, contains("/127.0.0.2 is now UP"), 5*time.Second, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !ok {
		t.Error("Scan() = false, want true")
	}
}

func TestLogScanner_PartialLineNotMatchedUntilComplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.log")
	appendFile(t, path, "INFO Listening for thrift")

	ok, err := newTestScanner().Scan(context.Background(), path, 0, func(line string) bool {
		return line == "INFO Listening for thrift clients..."
	}, 100*time.Millisecond, nil)
	if err != nil || ok {
		t.Fatalf("Scan() = %v, %v; want false, nil", ok, err)
	}

	appendFile(t, path, " clients...\n")
	ok, err = newTestScanner().Scan(context.Background(), path, 0, func(line string) bool {
		return line == "INFO Listening for thrift clients..."
	}, time.Second, nil)
	if err != nil || !ok {
		t.Fatalf("Scan() = %v, %v; want true, nil", ok, err)
	}
}

func TestLogScanner_Timeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.log")

	start := time.Now()
	ok, err := newTestScanner().Scan(context.Background(), path, 0, contains("never"), 100*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v, want nil on timeout", err)
	}
	if ok {
		t.Error("Scan() = true, want false")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Scan() took %v, timeout not honoured", elapsed)
	}
}

func TestLogScanner_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.log")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	ok, err := newTestScanner().Scan(ctx, path, 0, contains("never"), time.Minute, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
	if ok {
		t.Error("Scan() = true, want false")
	}
}

func TestLogScanner_ProcessExited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.log")
	appendFile(t, path, "ERROR Exception encountered during startup\n")

	var alive atomic.Bool
	alive.Store(false)

	_, err := newTestScanner().Scan(context.Background(), path, 0, contains("Listening"), time.Minute, alive.Load)
	if !errors.Is(err, ErrProcessExited) {
		t.Errorf("Scan() error = %v, want ErrProcessExited", err)
	}
}

func TestLogScanner_Truncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.log")
	appendFile(t, path, strings.Repeat("x", 100)+"\n")

	mark, _ := MarkOf(path)
	if err := os.WriteFile(path, []byte("INFO ready\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := newTestScanner().Scan(context.Background(), path, mark, contains("ready"), time.Second, nil)
	if err != nil || !ok {
		t.Errorf("Scan() after truncation = %v, %v; want true, nil", ok, err)
	}
}

func TestMarkOf(t *testing.T) {
	dir := t.TempDir()

	m, err := MarkOf(filepath.Join(dir, "missing.log"))
	if err != nil || m != 0 {
		t.Errorf("MarkOf(missing) = %d, %v; want 0, nil", m, err)
	}

	path := filepath.Join(dir, "system.log")
	appendFile(t, path, "12345\n")
	m, err = MarkOf(path)
	if err != nil || m != 6 {
		t.Errorf("MarkOf() = %d, %v; want 6, nil", m, err)
	}
}
