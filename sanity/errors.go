package sanity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoResult is returned by Fetch when the query evaluated to null,
	// e.g. a `[0]` projection that matched no document.
	ErrNoResult = errors.New("sanity: query returned no result")

	// ErrMissingToken is returned by Mutate when the client has no write token.
	ErrMissingToken = errors.New("sanity: write token is required for mutations")
)

// Error is a non-2xx response from the Sanity API.
type Error struct {
	StatusCode  int
	Type        string // e.g. "queryParseError", "mutationError"
	Description string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("sanity: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Type == "" {
		return fmt.Sprintf("sanity: %d: %s", e.StatusCode, e.Description)
	}
	return fmt.Sprintf("sanity: %d %s: %s", e.StatusCode, e.Type, e.Description)
}

// Temporary reports whether retrying the same request later could succeed.
func (e *Error) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// newError decodes either of the two error shapes the API produces:
//
//	{"error": {"type": "...", "description": "..."}}
//	{"error": "Unauthorized", "message": "...", "statusCode": 401}
func newError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return e
	}
	var detail struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		e.Type = detail.Type
		e.Description = detail.Description
		return e
	}
	var kind string
	if err := json.Unmarshal(envelope.Error, &kind); err == nil {
		e.Type = kind
	}
	e.Description = envelope.Message
	return e
}

// IsNotFound reports whether err means "no such document/result".
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNoResult) {
		return true
	}
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
