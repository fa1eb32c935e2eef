package todoist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/josephgoksu/TodoChat/types"
)

var (
	// ErrRateLimited marks a failure the task store reported as HTTP 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidResponse marks a response that failed envelope or payload validation.
	ErrInvalidResponse = errors.New("invalid response format")
	// ErrClientClosed is returned for calls made after Close.
	ErrClientClosed = errors.New("todoist client closed")
)

// RateLimitMessage is shown to the user when the task store throttles us.
const RateLimitMessage = "Rate limited by Todoist. Please wait a moment and try again."

// APIError is a failure reported by the task store.
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// classify maps a raw failure message to a rate-limit error or an APIError.
func classify(op, msg string) error {
	if strings.Contains(msg, "429") {
		return fmt.Errorf("%s: %w: %s", op, ErrRateLimited, msg)
	}
	return &APIError{Op: op, Message: msg}
}

// UserMessage renders a task-store error for the chat. Rate limiting gets a
// fixed message; other failures surface their raw text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *types.ValidationError
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrRateLimited):
		return RateLimitMessage
	case errors.Is(err, ErrInvalidResponse):
		return "Todoist returned an invalid response format."
	case errors.As(err, &ve):
		return "Invalid task: " + ve.Error()
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return err.Error()
	}
}
