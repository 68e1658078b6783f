package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable marks transport failures after the retry budget is spent,
	// including refused connections to the inference endpoint.
	ErrUnavailable = errors.New("service unavailable")
	// ErrMalformedReply marks responses that could not be parsed into a usable
	// structure.
	ErrMalformedReply = errors.New("malformed reply")
	// ErrBusy marks triggers suppressed because an equivalent operation is
	// already in flight.
	ErrBusy = errors.New("operation in flight")
	// ErrConfiguration marks unusable runtime settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks missing records or assets.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
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
