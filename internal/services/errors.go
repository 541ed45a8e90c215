package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed caller input. No state is mutated.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an unknown subject, task, or expired mapping.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a disallowed lifecycle transition, such as
	// submitting a subject that is already processing.
	ErrConflict = errors.New("conflict")
	// ErrStage marks a single analysis stage failure. Stage errors are
	// folded into the report and never escalate on their own.
	ErrStage = errors.New("stage error")
	// ErrFatal marks a pipeline precondition failure that prevents any
	// stage from running.
	ErrFatal = errors.New("fatal pipeline error")
	// ErrUnavailable marks state store unavailability.
	ErrUnavailable = errors.New("storage unavailable")
)

// Wrap builds an error that includes component context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
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

// IsCallerError reports whether an error should surface as the caller's
// fault rather than a service failure.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
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
