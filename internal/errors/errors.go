// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed id or a missing/invalid field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports an unknown campaign or contact.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

// ConflictError reports a request that collides with work already in progress.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ExternalServiceError wraps a failed call to the LLM or email provider.
// It is absorbed by the send pipeline and never returned to API callers.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// Helper constructors
func NewValidation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func NewCampaignNotFound(id int) error {
	return &NotFoundError{Resource: "campaign", ID: id}
}

func NewContactNotFound(id int) error {
	return &NotFoundError{Resource: "contact", ID: id}
}

func NewConflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func NewExternal(service string, err error) error {
	return &ExternalServiceError{Service: service, Err: err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
