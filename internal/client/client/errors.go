package client

import (
	"errors"
	"fmt"
)

var ErrUnavailable = errors.New("server unavailable")

// APIError is a non-2xx answer from the server. Category is the server's
// machine-readable category, e.g. "quota_exceeded".
type APIError struct {
	Status    int
	Category  string
	Message   string
	Retryable bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d (%s)", e.Status, e.Category)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// CategoryOf returns the API error category of err, or "" when err is not an
// APIError.
func CategoryOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Category
	}
	return ""
}
