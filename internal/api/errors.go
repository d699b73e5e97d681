package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError represents an error returned by the API, or the absence of any
// response (StatusCode 0).
type APIError struct {
	StatusCode int
	Message    string
	// From is the server-side origin of the error, when the body names one.
	From string
	// Err is the transport error for unreachable APIs.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("API unreachable: %v", e.Err)
		}
		return "API unreachable"
	}
	if e.Message != "" {
		return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: status %d", e.StatusCode)
}

// Unwrap returns the transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsUnreachable returns true if no response was received.
func (e *APIError) IsUnreachable() bool {
	return e.StatusCode == 0
}

// IsNotFound returns true if the error is a 404 Not Found.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized returns true if the error is a 401 Unauthorized.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsForbidden returns true if the error is a 403 Forbidden.
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == 403
}

// IsConflict returns true if the error is a 409 Conflict.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == 409
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// errorBody is the structured error body sent by the API.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	From    string `json:"from"`
}

// parseErrorBody extracts the human-readable message of an error body.
// ok is false when the body is not a structured error.
func parseErrorBody(body []byte) (msg, from string, ok bool) {
	var eb errorBody
	if len(body) == 0 || json.Unmarshal(body, &eb) != nil {
		return "", "", false
	}
	switch {
	case eb.Message != "":
		return eb.Message, eb.From, true
	case eb.Error != "":
		return eb.Error, eb.From, true
	}
	return "", "", false
}
