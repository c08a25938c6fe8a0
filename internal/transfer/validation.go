package transfer

import "fmt"

// ValidationError rejects a request payload before it reaches a service.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Validator is implemented by every request body parsed at the API boundary.
type Validator interface {
	Validate() error
}
