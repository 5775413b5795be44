//go:build unix

package shutdown

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestHandler_ContextCancelledBySignal(t *testing.T) {
	h := NewHandler(time.Second)
	h.signals = append(h.signals, syscall.SIGUSR1)

	ctx, stop := h.Context(context.Background())
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by signal")
	}
}
