// Copyright (C) 2025 Joshua Goldstein

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches backend 401 and 403 responses.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrNotFound matches backend 404 responses.
	ErrNotFound = errors.New("api: not found")
	// ErrNoCredentials is returned before any request is sent when the
	// session carries no token.
	ErrNoCredentials = errors.New("api: missing credentials")
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

const maxMessageLen = 200

// newAPIError extracts a readable message from an error body. JSON bodies
// with an error, message or detail field are preferred over raw text.
func newAPIError(status int, body []byte) *APIError {
	msg := ""
	var payload map[string]any
	if json.Unmarshal(body, &payload) == nil {
		for _, k := range []string{"error", "message", "detail"} {
			if s, ok := payload[k].(string); ok && s != "" {
				msg = s
				break
			}
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if r := []rune(msg); len(r) > maxMessageLen {
		msg = string(r[:maxMessageLen])
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}
