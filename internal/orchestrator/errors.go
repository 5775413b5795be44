package orchestrator

import (
	"errors"
	"fmt"

	"github.com/yndnr/ccm-go/internal/core/domain"
)

// StartupError describes why a start attempt failed.
type StartupError struct {
	Node   string
	Phase  string
	Output string // captured process output, if any
	Err    error
}

func (e *StartupError) Error() string {
	msg := fmt.Sprintf("%s: node %s (%s)", domain.ErrStartupFailure.Error(), e.Node, e.Phase)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// Is matches domain.ErrStartupFailure.
func (e *StartupError) Is(target error) bool {
	return errors.Is(domain.ErrStartupFailure, target)
}
