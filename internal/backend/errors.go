package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized matches any 401 answer from the backend.
	ErrUnauthorized = errors.New("unauthorized")
	ErrMissingToken = errors.New("Server response missing access token")
	ErrMalformed    = errors.New("malformed backend response")
)

const maxMessageLen = 300

type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == 401
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// Message returns the backend-provided message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrMissingToken) {
		return ErrMissingToken.Error()
	}
	return fallback
}

func extractMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}
	var text string
	if err := json.Unmarshal([]byte(trimmed), &text); err == nil {
		trimmed = text
	}
	if strings.HasPrefix(trimmed, "<") {
		return ""
	}
	if runes := []rune(trimmed); len(runes) > maxMessageLen {
		trimmed = string(runes[:maxMessageLen])
	}
	return trimmed
}
