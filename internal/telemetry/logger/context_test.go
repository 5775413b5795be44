package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("FromContext() without logger should return Default()")
	}
}

func TestContextValues(t *testing.T) {
	ctx := WithAttemptID(context.Background(), "01HZX")
	ctx = WithCluster(ctx, "test")

	if got := AttemptIDFromContext(ctx); got != "01HZX" {
		t.Errorf("AttemptIDFromContext() = %q", got)
	}
	if got := ClusterFromContext(ctx); got != "test" {
		t.Errorf("ClusterFromContext() = %q", got)
	}
	if AttemptIDFromContext(context.Background()) != "" {
		t.Error("AttemptIDFromContext() on empty context should be empty")
	}
}

func TestL_EnrichesLogger(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "text", Output: &buf})

	ctx := WithLogger(context.Background(), l)
	ctx = WithCluster(ctx, "test")
	ctx = WithAttemptID(ctx, "01HZX")

	L(ctx).Info("starting")

	out := buf.String()
	for _, want := range []string{"cluster=test", "attempt_id=01HZX", "starting"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}
