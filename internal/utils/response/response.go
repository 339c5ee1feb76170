// Package response provides helpers for writing consistent HTTP responses.
//
// Data (student lists, login results) is written as JSON. Status messages
// such as "Student added" are written as plain text, which is what the
// roster frontend reads.
package response

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope used by the health endpoint.
//
//	{ "status": "error", "error": "server selection timeout" }
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes data JSON-encoded with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteText writes msg as a text/plain body with the given status code.
func WriteText(w http.ResponseWriter, status int, msg string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, err := w.Write([]byte(msg))
	return err
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// OK is the Response for a healthy check.
func OK() Response {
	return Response{Status: StatusOK}
}
