package alerting

import "errors"

var (
	// ErrAlertNotFound is returned when an operation references an alert
	// that is not in the active set.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrEngineStopped is returned by operations invoked after Shutdown.
	ErrEngineStopped = errors.New("engine stopped")
)
