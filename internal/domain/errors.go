package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("invalid build request")
	ErrBuildFailed = errors.New("document build failed")
	ErrSaveFailed  = errors.New("document save failed")
)

// ValidationError reports a request rejected before any page is composed.
type ValidationError struct {
	Field  string // e.g. "hotels[2].link"
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
