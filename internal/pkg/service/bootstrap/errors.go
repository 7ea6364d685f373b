package bootstrap

import (
	"fmt"
	"time"
)

// TimeoutError reports that a bounded wait ended before its condition was met.
// It is recoverable, the whole invocation can be retried later,
// typically by an orchestration-level restart.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
	Elapsed time.Duration
	Err     error // last observed error, may be nil
}

func (e TimeoutError) Error() string {
	msg := fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e TimeoutError) Unwrap() error {
	return e.Err
}

// InfrastructureError reports a fatal failure of a core step or a cluster hook.
// The deployment is aborted, operator intervention is required.
type InfrastructureError struct {
	Err error
}

func (e InfrastructureError) Error() string {
	return "infrastructure init failed: " + e.Err.Error()
}

func (e InfrastructureError) Unwrap() error {
	return e.Err
}
