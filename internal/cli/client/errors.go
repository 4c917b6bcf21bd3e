package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is the single error type every failed request is normalized to.
// Status is the HTTP status code, or 0 when the request never reached the
// server (network failure).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Transient reports whether the failure was network-level rather than an
// answer from the server. Callers may retry transient failures; a 4xx is
// final.
func (e *APIError) Transient() bool {
	return e.Status == 0
}

// errorBody is the shape of error payloads the API returns.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// statusMessage maps a status code to a generic human-readable message, used
// when the server did not supply one.
func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "you do not have permission to do that"
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation failed"
	default:
		return "request failed"
	}
}

// normalizeResponse turns a non-success HTTP response into an *APIError.
// Message priority: the server's structured error message, then a
// status-specific generic, then the catch-all from statusMessage.
func normalizeResponse(resp *http.Response) *APIError {
	message := statusMessage(resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(body) > 0 {
		var parsed errorBody
		if err := json.Unmarshal(body, &parsed); err == nil {
			if parsed.Error != "" {
				message = parsed.Error
			} else if parsed.Detail != "" {
				message = parsed.Detail
			}
		}
	}

	return &APIError{Status: resp.StatusCode, Message: message}
}

// normalizeTransport turns a network-level failure into an *APIError.
func normalizeTransport(err error) *APIError {
	return &APIError{Status: 0, Message: fmt.Sprintf("could not reach the InsureFlow server: %v", err)}
}
