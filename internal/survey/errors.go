package survey

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks across the taxonomy.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("size bucket not found")
	ErrDivisionUndefined = errors.New("division undefined")
)

// ValidationError reports malformed input data
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a query against an unknown size bucket
type NotFoundError struct {
	Bucket SizeBucket
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("size bucket %q not found", string(e.Bucket))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DivisionUndefinedError reports a percentage over a bucket with no respondents
type DivisionUndefinedError struct {
	Bucket SizeBucket
}

func (e *DivisionUndefinedError) Error() string {
	return fmt.Sprintf("percentage undefined for size bucket %q: zero respondents", string(e.Bucket))
}

func (e *DivisionUndefinedError) Is(target error) bool { return target == ErrDivisionUndefined }
