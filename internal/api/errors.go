package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidJSON indicates a successful response whose body was not JSON.
	ErrInvalidJSON = errors.New("api: response body is not valid JSON")
	// ErrUnsuccessful indicates a 2xx response that reported success=false.
	ErrUnsuccessful = errors.New("api: request reported failure")
)

// HTTPError is returned when the backend answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// genericHTTPMessage is used when the error body carries no message field.
func genericHTTPMessage(status int) string {
	return fmt.Sprintf("HTTP error, status %d", status)
}

// NetworkError is returned when the request never produced a response
// (DNS failure, connection refused, timeout, cancellation).
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FieldError is a single failed client-side check.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects client-side field failures. It is produced before
// any request is built, so it never reaches the network layer.
type ValidationError struct {
	Fields []FieldError
}

// Add records a failure for field. Only the last message per field is kept.
func (e *ValidationError) Add(field, message string) {
	for i, f := range e.Fields {
		if f.Field == field {
			e.Fields[i].Message = message
			return
		}
	}
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Message(field)
	return ok
}

// Message returns the failure message for field.
func (e *ValidationError) Message(field string) (string, bool) {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message, true
		}
	}
	return "", false
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	sort.Strings(msgs)
	return "validation failed: " + strings.Join(msgs, "; ")
}

// UserMessage renders err the way a widget shows it: the server or transport
// message with no package prefix.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Message
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Error()
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}
