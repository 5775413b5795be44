package domain

import (
	"errors"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	for _, in := range []string{"TRACE", "debug", " Info ", "WARN", "error"} {
		if _, err := ParseLogLevel(in); err != nil {
			t.Errorf("ParseLogLevel(%q) error = %v", in, err)
		}
	}

	_, err := ParseLogLevel("VERBOSE")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ParseLogLevel(VERBOSE) error = %v, want ErrInvalidArgument", err)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2", "1.2", 0},
		{"1.2.0", "1.2", 0},
		{"1.2.5", "1.2", 1},
		{"1.1.12", "1.2", -1},
		{"0.8", "0.7", 1},
		{"2.0.0-beta1", "2.0", 0},
		{"1.10", "1.9", 1},
	}

	for _, tt := range tests {
		if got := CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestVersionAtLeast(t *testing.T) {
	if !VersionAtLeast("", "0.8") {
		t.Error("empty version should satisfy any minimum")
	}
	if VersionAtLeast("0.7.10", "0.8") {
		t.Error("0.7.10 is older than 0.8")
	}
	if !VersionAtLeast("1.2.5", "1.2") {
		t.Error("1.2.5 is at least 1.2")
	}
}

func TestValidateConfig(t *testing.T) {
	ok := ClusterConfig{Name: "test", LogLevel: LogInfo, Root: "/tmp/ccm"}
	if err := ValidateConfig(ok); err != nil {
		t.Fatalf("ValidateConfig() error = %v", err)
	}

	bad := ok
	bad.Name = "a/b"
	if err := ValidateConfig(bad); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ValidateConfig() error = %v, want ErrInvalidArgument", err)
	}
}
