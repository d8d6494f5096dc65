package core

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers classify failures with errors.Is against
// these and never by string matching.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrCapability  = errors.New("capability error")
	ErrConsistency = errors.New("consistency error")
)

// ValidationError rejects a malformed record or trigger before any state
// is mutated.
func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundError reports an unknown participant, node, or dialogue id.
func NotFoundError(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// CapabilityError wraps a failure of the external generation capability
// after retries are exhausted.
func CapabilityError(err error) error {
	return fmt.Errorf("%w: %v", ErrCapability, err)
}

// ConsistencyError reports an operation against a nonexistent node. The
// graph treats these as no-ops and logs them; the error carries context
// for the caller.
func ConsistencyError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConsistency, fmt.Sprintf(format, args...))
}
