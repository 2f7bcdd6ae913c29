package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError reports that a referenced subject, resource or grant does
// not exist. It propagates to the caller and is never silently treated as
// a deny.
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func NewNotFoundError(kind string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InvalidScopeError marks a policy whose scope cannot be evaluated against
// the resource, e.g. an org-scoped policy on a resource with no owning
// unit. It is treated as a non-match, not a failure.
type InvalidScopeError struct {
	PolicyID uuid.UUID
	Scope    string
}

func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("policy %s has unevaluable scope %q", e.PolicyID, e.Scope)
}

// AuditWriteFailure wraps a failed audit persist. It is logged internally
// and never surfaced to the authorization caller.
type AuditWriteFailure struct {
	Err error
}

func (e *AuditWriteFailure) Error() string {
	return fmt.Sprintf("audit write failed: %v", e.Err)
}

func (e *AuditWriteFailure) Unwrap() error {
	return e.Err
}
