package service

import "fmt"

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       int64
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
	}
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

// ValidationError represents a validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// BusinessLogicError represents a business logic error
type BusinessLogicError struct {
	Message string
}

func (e *BusinessLogicError) Error() string {
	return fmt.Sprintf("business logic error: %s", e.Message)
}

// ConflictError represents a conflict error (e.g., duplicate)
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict with %s: %s", e.Resource, e.Message)
}

// PurposeNotFoundError is returned when no purpose exists for a code
type PurposeNotFoundError struct {
	Code string
}

func (e *PurposeNotFoundError) Error() string {
	return fmt.Sprintf("purpose with code %q not found", e.Code)
}

// PurposeInactiveError is returned when a purpose exists but is disabled.
// Inactive purposes must never be dispatched.
type PurposeInactiveError struct {
	Code string
}

func (e *PurposeInactiveError) Error() string {
	return fmt.Sprintf("purpose with code %q is inactive", e.Code)
}

// TemplateError is returned when no template body exists for the
// resolved channel. Unresolved placeholders are warnings, not errors.
type TemplateError struct {
	PurposeCode string
	Channel     string
	Message     string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error for purpose %q channel %s: %s", e.PurposeCode, e.Channel, e.Message)
}

// TransportError wraps whatever the provider gateway reported
type TransportError struct {
	Code    string
	Message string
	Raw     *string // raw provider response body, when one was received
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error [%s]: %s", e.Code, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
