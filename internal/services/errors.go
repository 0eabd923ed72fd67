package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrMalformedInput   = errors.New("malformed input")
	ErrExternalTool     = errors.New("external tool error")
	ErrEmptyCatalog     = errors.New("catalog is empty")
	ErrDegenerateWindow = errors.New("degenerate segment window")
	ErrConfiguration    = errors.New("configuration error")
	ErrTimeout          = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Skippable reports whether a per-recording failure may be skipped so that a
// batch or an assembly run can continue with the next recording.
func Skippable(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrEmptyCatalog),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
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
