package logger

import (
	"log/slog"
	"strings"
)

// Key fragments marking configuration options whose values must not be
// logged, e.g. server_encryption_options.keystore_password.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"keystore",
	"truststore",
}

const redactedValue = "***REDACTED***"

// redactSensitive masks string attributes whose key looks sensitive.
// Groups are walked recursively.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// IsSensitiveKey reports whether a configuration key holds a secret.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(k, pattern) {
			return true
		}
	}
	return false
}

// RedactOption returns value, or a placeholder when key is sensitive.
// Use it when printing configuration overrides.
func RedactOption(key, value string) string {
	if value != "" && IsSensitiveKey(key) {
		return redactedValue
	}
	return value
}
