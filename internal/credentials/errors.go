package credentials

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the wire-level error envelope.
type Kind string

// Failure kinds, ordered by where they occur in the call path.
// Validation happens before any I/O; credential kinds short-circuit before
// the provider call; ProviderError is only possible after credential
// resolution succeeded.
const (
	KindValidation    Kind = "ValidationError"
	KindNoCredentials Kind = "NoCredentials"
	KindUnrefreshable Kind = "Unrefreshable"
	KindRefreshFailed Kind = "RefreshFailed"
	KindProviderError Kind = "ProviderError"
)

// Error is a classified failure. Detail is safe for logs and error payloads:
// it must never contain client secrets or token material.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error without a wrapped cause.
func NewError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// WrapError creates a classified error wrapping an underlying cause.
func WrapError(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// KindOf returns the Kind of a classified error, or KindProviderError for
// anything unclassified (the only unclassified failures in the call path are
// downstream ones).
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindProviderError
}
