package ranking

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches any NotFoundError via errors.Is
	ErrNotFound = errors.New("content not found")

	// ErrInvalidArgument matches any InvalidArgumentError via errors.Is
	ErrInvalidArgument = errors.New("invalid argument")
)

// NotFoundError reports an operation on a content ID the ledger does not hold.
// Callers re-publish the item first; the engine never retries.
type NotFoundError struct {
	ContentID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content %q not found", e.ContentID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidArgumentError reports a caller contract violation detected before any
// state was touched.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidArgument) match.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func notFound(id string) error {
	return &NotFoundError{ContentID: id}
}

func invalid(field, reason string) error {
	return &InvalidArgumentError{Field: field, Reason: reason}
}
