package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/yndnr/ccm-go/internal/telemetry/logger"
)

// Scanner defaults.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMinReadGap   = 50 * time.Millisecond
)

// LogScanner waits for lines matching a predicate in append-only files.
// It is safe for concurrent use; every Scan owns its own watcher.
type LogScanner struct {
	pollInterval time.Duration
	minReadGap   time.Duration
	logger       logger.Logger
}

// ScannerOption configures a LogScanner.
type ScannerOption func(*LogScanner)

// WithPollInterval sets the fallback polling interval.
func WithPollInterval(d time.Duration) ScannerOption {
	return func(s *LogScanner) {
		s.pollInterval = d
	}
}

// WithMinReadGap bounds how often a busy file is re-read.
func WithMinReadGap(d time.Duration) ScannerOption {
	return func(s *LogScanner) {
		s.minReadGap = d
	}
}

// WithScannerLogger sets the logger.
func WithScannerLogger(l logger.Logger) ScannerOption {
	return func(s *LogScanner) {
		s.logger = l
	}
}

// NewLogScanner creates a scanner.
func NewLogScanner(opts ...ScannerOption) *LogScanner {
	s := &LogScanner{
		pollInterval: DefaultPollInterval,
		minReadGap:   DefaultMinReadGap,
		logger:       logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan reads path from offset from and returns true as soon as match
// accepts a complete line. It returns (false, nil) when timeout elapses,
// (false, ctx.Err()) when ctx is cancelled and (false, ErrProcessExited)
// when alive reports the writer is gone and no match was found. alive
// may be nil. A non-positive timeout waits until ctx is done.
func (s *LogScanner) Scan(ctx context.Context, path string, from Mark, match func(string) bool, timeout time.Duration, alive func() bool) (bool, error) {
	parent := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t := &tail{path: path, offset: int64(from)}

	// Events are an optimisation; polling alone is still correct.
	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if w, err := fsnotify.NewWatcher(); err == nil {
		defer w.Close()
		if err := w.Add(filepath.Dir(path)); err == nil {
			events, watchErrs = w.Events, w.Errors
		} else {
			s.logger.Debug("log directory not watchable, polling only", "path", path, "error", err)
		}
	}

	limiter := rate.NewLimiter(rate.Every(s.minReadGap), 1)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	check := func() (bool, error) {
		if err := limiter.Wait(ctx); err != nil {
			return false, nil
		}
		return t.readLines(match)
	}

	if ok, err := t.readLines(match); ok || err != nil {
		return ok, err
	}

	for {
		select {
		case <-ctx.Done():
			if parent.Err() != nil {
				return false, parent.Err()
			}
			return false, nil

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if ok, err := check(); ok || err != nil {
				return ok, err
			}

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			s.logger.Debug("log watcher error", "path", path, "error", err)

		case <-ticker.C:
			if ok, err := check(); ok || err != nil {
				return ok, err
			}
			if alive != nil && !alive() {
				// Pick up whatever the process wrote before dying.
				if ok, err := t.readLines(match); ok || err != nil {
					return ok, err
				}
				return false, ErrProcessExited
			}
		}
	}
}

// tail tracks the read position in one file. Only complete lines are
// consumed; a trailing partial line is re-read on the next pass.
type tail struct {
	path   string
	offset int64
}

func (t *tail) readLines(match func(string) bool) (bool, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open log %s: %w", t.path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat log %s: %w", t.path, err)
	}
	if fi.Size() < t.offset {
		// Truncated or replaced: start over.
		t.offset = 0
	}
	if fi.Size() == t.offset {
		return false, nil
	}

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return false, fmt.Errorf("seek log %s: %w", t.path, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return false, fmt.Errorf("read log %s: %w", t.path, err)
	}

	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return false, nil
		}
		line := data[:i]
		data = data[i+1:]
		t.offset += int64(i + 1)
		if match(string(bytes.TrimRight(line, "\r"))) {
			return true, nil
		}
	}
}

// MarkOf returns the current end of path, or 0 when it does not exist.
func MarkOf(path string) (Mark, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat log %s: %w", path, err)
	}
	return Mark(fi.Size()), nil
}
