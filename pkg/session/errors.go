package session

import "fmt"

// ConfigurationError is returned when an operation is attempted before the
// SDK has been initialized with its game info.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// StateError is returned when the backend rejects a session or state
// operation, or an operation is attempted with no active session. It is
// never retried automatically.
type StateError struct {
	Op      string
	Message string
	Err     error
}

func (e *StateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Message)
}

func (e *StateError) Unwrap() error {
	return e.Err
}
