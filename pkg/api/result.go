package api

import "encoding/json"

// Result is the uniform envelope every backend response follows.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

// ErrorInfo is the failure half of the envelope. The backend sends either
// a bare message string or a {code, message} object.
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *ErrorInfo) UnmarshalJSON(b []byte) error {
	var message string
	if err := json.Unmarshal(b, &message); err == nil {
		e.Message = message
		return nil
	}
	type errorInfo ErrorInfo
	var info errorInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return err
	}
	*e = ErrorInfo(info)
	return nil
}

func (e *ErrorInfo) String() string {
	if e == nil {
		return "unknown error"
	}
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// HasData reports whether the envelope carries a payload.
func (r *Result) HasData() bool {
	return len(r.Data) > 0 && string(r.Data) != "null"
}

// DecodeData unmarshals the envelope payload into v.
func (r *Result) DecodeData(v interface{}) error {
	return json.Unmarshal(r.Data, v)
}
