package api

import "fmt"

// TransportError is returned when a request fails below the envelope:
// the network was unreachable, the call timed out, or the response body
// was not a valid envelope. Backend-reported failures are not transport
// errors and come back inside the Result instead.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
