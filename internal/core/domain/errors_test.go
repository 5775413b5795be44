package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("CCM-TEST-1000", "test message"),
			expected: "[CCM-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("CCM-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[CCM-TEST-1001] test message: extra info",
		},
		{
			name:     "error with formatted details",
			err:      ErrDuplicateName.WithDetailsf("node %s", "node1"),
			expected: "[CCM-ARG-1090] name already in use: node node1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("CCM-TEST-1000", "message 1")
	err2 := NewDomainError("CCM-TEST-1000", "message 2")
	err3 := NewDomainError("CCM-TEST-1001", "message 1")

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := ErrStorage.WithCause(cause)

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if errors.Unwrap(NewDomainError("CCM-TEST-1000", "no cause")) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_CopiesDoNotMutate(t *testing.T) {
	withDetails := ErrInvalidArgument.WithDetails("node count 0")
	withCause := ErrInvalidArgument.WithCause(errors.New("boom"))

	if ErrInvalidArgument.Details != "" || ErrInvalidArgument.Cause != nil {
		t.Fatal("sentinel error was modified")
	}
	if withDetails.Code != ErrInvalidArgument.Code || withCause.Code != ErrInvalidArgument.Code {
		t.Error("copies must keep the sentinel code")
	}
}

func TestIsDomainError(t *testing.T) {
	if !IsDomainError(ErrLoad, "CCM-STATE-5001") {
		t.Error("IsDomainError should return true for matching code")
	}
	if IsDomainError(ErrLoad, "CCM-STATE-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}
	if !IsDomainError(ErrLoad, "") {
		t.Error("IsDomainError with empty code should match any DomainError")
	}
	if IsDomainError(fmt.Errorf("regular error"), "CCM-STATE-5001") {
		t.Error("IsDomainError should return false for non-DomainError")
	}

	wrapped := fmt.Errorf("wrapped: %w", ErrLoad)
	if !IsDomainError(wrapped, "CCM-STATE-5001") {
		t.Error("IsDomainError should work with wrapped errors")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", ErrStartupFailure, "CCM-START-5000"},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", ErrDuplicateName), "CCM-ARG-1090"},
		{"regular error", fmt.Errorf("regular error"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *DomainError
		code string
	}{
		{ErrInvalidArgument, "CCM-ARG-1001"},
		{ErrNodeNotFound, "CCM-ARG-1040"},
		{ErrClusterNotFound, "CCM-ARG-1041"},
		{ErrDuplicateName, "CCM-ARG-1090"},
		{ErrLoad, "CCM-STATE-5001"},
		{ErrStorage, "CCM-STATE-5002"},
		{ErrStartupFailure, "CCM-START-5000"},
		{ErrReadinessTimeout, "CCM-START-4080"},
		{ErrProcess, "CCM-PROC-5000"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Error code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Error message should not be empty")
			}
		})
	}
}
