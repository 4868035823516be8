package api

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced project or file does not exist
// on the platform.
var ErrNotFound = errors.New("not found")

// APIError represents a non-2xx platform response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform API returned status %d", e.Status)
	}
	return fmt.Sprintf("platform API returned status %d: %s", e.Status, e.Message)
}

// Retryable reports whether the error may succeed on a retry. Only server
// errors qualify; client errors are deterministic.
func (e *APIError) Retryable() bool {
	return e.Status >= 500
}
