package scheduling

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups of entities that should exist: persisted
// activities addressed by GUID and schema/survey/compound-activity
// definitions. A dangling definition reference is a study configuration
// fault, not a transient condition.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed caller input. It is always surfaced
// synchronously and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
