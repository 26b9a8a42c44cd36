package push

import "fmt"

// ConnectionError is returned when the push channel cannot be established.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("push channel connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
