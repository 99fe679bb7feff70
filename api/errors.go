package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized is returned after a 401 has been handled globally. Callers
// should stop without reporting anything further.
var ErrUnauthorized = errors.New("unauthorized")

// RequestError is a non-2xx response whose message was extracted from the body.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// MessageFrom picks the user-facing message for a failed response: the JSON
// "message" field, else the raw body text, else a generic status line.
func MessageFrom(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Message) != "" {
		return payload.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("failed, status %d", status)
}
