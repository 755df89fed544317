package launch

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRunner reports that a target cannot be started in the requested mode.
	ErrNoRunner = errors.New("launch: no runner for target and mode")
	// ErrDispatcherClosed is returned by Dispatch after the dispatcher shut down.
	ErrDispatcherClosed = errors.New("launch: dispatcher closed")
)

// LaunchError records a request that could not be started. It is logged and
// counted; sibling requests are never affected.
type LaunchError struct {
	TargetID string
	Mode     Mode
	Err      error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s (%s): %v", e.TargetID, e.Mode, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

func newLaunchError(req Request, err error) *LaunchError {
	var existing *LaunchError
	if errors.As(err, &existing) {
		return existing
	}
	return &LaunchError{TargetID: req.Target.ID, Mode: req.Mode, Err: err}
}

// Logger receives scheduler and launcher diagnostics. logbook.Logbook
// satisfies it.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
