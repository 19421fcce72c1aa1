package dataall

import (
	"fmt"
	"strings"
)

// CallError reports misuse of the generated call surface: an unknown
// operation name, a positional argument where only keyword arguments are
// accepted, or an argument outside the operation's flattened keys.
type CallError struct {
	Operation string
	Message   string
}

func (e *CallError) Error() string {
	return e.Message
}

func errOnlyKeywordArguments(operation string) *CallError {
	return &CallError{
		Operation: operation,
		Message:   fmt.Sprintf("%s() only accepts keyword arguments.", operation),
	}
}

func errUnknownArgument(operation, key string) *CallError {
	return &CallError{
		Operation: operation,
		Message:   fmt.Sprintf("%s() got an unexpected keyword argument %q.", operation, key),
	}
}

func errUnknownOperation(operation string) *CallError {
	return &CallError{
		Operation: operation,
		Message:   fmt.Sprintf("unknown operation %q", operation),
	}
}

// ResponseError reports a backend response that does not look like a
// GraphQL envelope: a 2xx body that is not JSON, an envelope without a
// data object, or a data object without the operation's key. Body keeps
// the raw response for debugging; the message is fixed.
type ResponseError struct {
	Operation string
	Endpoint  string
	Body      []byte
}

func (e *ResponseError) Error() string {
	return "Invalid response format."
}

// GraphQLRemoteError carries every message of the response's errors array,
// in array order.
type GraphQLRemoteError struct {
	Operation string
	Endpoint  string
	Messages  []string
}

func (e *GraphQLRemoteError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// HTTPStatusError reports a non-2xx response with no parseable GraphQL
// errors array.
type HTTPStatusError struct {
	Operation  string
	Endpoint   string
	StatusCode int
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP status code: %d", e.StatusCode)
}
