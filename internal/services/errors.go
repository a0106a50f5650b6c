package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable marks connection-level failures: refused, reset, timed out.
	ErrUnavailable = errors.New("server unavailable")
	// ErrAuth marks 401/403 responses.
	ErrAuth = errors.New("authentication rejected")
	// ErrNotFound marks 404 responses and missing named resources.
	ErrNotFound = errors.New("not found")
	// ErrServer marks 5xx responses.
	ErrServer = errors.New("server error")
	// ErrMalformed marks responses that could not be decoded.
	ErrMalformed = errors.New("malformed response")
	// ErrConfiguration marks unusable configuration detected at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks records that fail pre-flight checks.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrServer
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsNotFound reports whether err carries the not-found marker. Call sites use
// it to distinguish an absent resource (a missing cover, an unknown
// collection) from a real failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
