/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotLoggedIn is returned when a command needs a session and none is stored.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrNotFound is returned when the backend has no such resource.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the session role cannot access a resource.
	ErrForbidden = errors.New("forbidden")
	// ErrPolicyDenied is returned when a decision policy blocks an action.
	ErrPolicyDenied = errors.New("denied by policy")
)

// APIError provides structured error information for failed backend calls
type APIError struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("api %d: %s (request %s)", e.Status, msg, e.RequestID)
	}
	return fmt.Sprintf("api %d: %s", e.Status, msg)
}

// Is maps HTTP statuses onto the package sentinels so callers can use errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotLoggedIn:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	default:
		return false
	}
}

// NewAPIError creates a new structured API error
func NewAPIError(status int, message, requestID string) *APIError {
	return &APIError{
		Status:    status,
		Message:   message,
		RequestID: requestID,
	}
}
