package schema

import (
	"errors"
	"fmt"
)

const (
	// CodeSchemaNotFound indicates the requested schema version or file
	// path could not be resolved to a document.
	CodeSchemaNotFound = "schema_not_found"
	// CodeSchemaInvalid indicates the resolved document failed GraphQL
	// validation.
	CodeSchemaInvalid = "schema_invalid"
)

// Error is a structured schema loading or compilation error.
type Error struct {
	// Code is an internal error code string.
	Code string
	// Message is the user-facing error message.
	Message string
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a schema resolution failure.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeSchemaNotFound
}

// IsInvalid reports whether err is a schema validation failure.
func IsInvalid(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeSchemaInvalid
}
