package service

import "net/http"

// APIError carries an HTTP status and a caller-safe message. Internal
// detail stays in logs, never in the response body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

func unauthorized(message string) *APIError {
	return newAPIError(http.StatusUnauthorized, message)
}
