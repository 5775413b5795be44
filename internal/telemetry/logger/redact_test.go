package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestRedactSensitive_OptionKeys(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})

	l.Info("config option updated",
		"keystore_password", "cassandra",
		"commitlog_sync", "batch",
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["keystore_password"] != redactedValue {
		t.Errorf("keystore_password = %v, want redacted", entry["keystore_password"])
	}
	if entry["commitlog_sync"] != "batch" {
		t.Errorf("commitlog_sync = %v, want batch", entry["commitlog_sync"])
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	a := slog.Group("tls", slog.String("truststore_password", "x"), slog.String("protocol", "TLS"))
	got := redactSensitive(a)

	attrs := got.Value.Group()
	if attrs[0].Value.String() != redactedValue {
		t.Errorf("nested secret = %q, want redacted", attrs[0].Value.String())
	}
	if attrs[1].Value.String() != "TLS" {
		t.Errorf("nested plain value = %q", attrs[1].Value.String())
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := map[string]bool{
		"keystore_password":          true,
		"Client_Secret":              true,
		"truststore":                 true,
		"num_tokens":                 false,
		"endpoint_snitch":            false,
		"authenticator":              false,
		"credentials_validity_in_ms": true,
	}
	for key, want := range tests {
		if got := IsSensitiveKey(key); got != want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestRedactOption(t *testing.T) {
	if got := RedactOption("keystore_password", "secret"); got != redactedValue {
		t.Errorf("RedactOption() = %q", got)
	}
	if got := RedactOption("keystore_password", ""); got != "" {
		t.Errorf("RedactOption() with empty value = %q", got)
	}
	if got := RedactOption("num_tokens", "256"); got != "256" {
		t.Errorf("RedactOption() = %q", got)
	}
}
