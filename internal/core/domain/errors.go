// Package domain defines the core domain model of ccm.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes have the form CCM-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "CCM-ARG-1001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates malformed or out-of-range input.
	ErrInvalidArgument = NewDomainError("CCM-ARG-1001", "invalid argument")

	// ErrNodeNotFound indicates the named node is not part of the cluster.
	ErrNodeNotFound = NewDomainError("CCM-ARG-1040", "node not found")

	// ErrClusterNotFound indicates no cluster descriptor exists under the root.
	ErrClusterNotFound = NewDomainError("CCM-ARG-1041", "cluster not found")

	// ErrDuplicateName indicates a node or cluster name is already in use.
	ErrDuplicateName = NewDomainError("CCM-ARG-1090", "name already in use")
)

// ============================================================================
// State Errors (STATE)
// ============================================================================

var (
	// ErrLoad indicates a persisted descriptor could not be loaded.
	ErrLoad = NewDomainError("CCM-STATE-5001", "cannot load descriptor")

	// ErrStorage indicates a filesystem operation on cluster state failed.
	ErrStorage = NewDomainError("CCM-STATE-5002", "storage error")
)

// ============================================================================
// Startup Errors (START)
// ============================================================================

var (
	// ErrStartupFailure indicates a node failed to come up or to see its peers.
	ErrStartupFailure = NewDomainError("CCM-START-5000", "cluster startup failed")

	// ErrReadinessTimeout indicates a node never logged its client-ready marker.
	ErrReadinessTimeout = NewDomainError("CCM-START-4080", "node not ready in time")
)

// ============================================================================
// Process Errors (PROC)
// ============================================================================

var (
	// ErrProcess indicates the node process could not be launched or signalled.
	ErrProcess = NewDomainError("CCM-PROC-5000", "node process error")
)
