package expo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidToken   = errors.New("invalid push token")
	ErrInvalidPayload = errors.New("invalid notification payload")
	ErrTransport      = errors.New("transport failure")
	ErrServiceErrors  = errors.New("service reported errors")
	ErrCountMismatch  = errors.New("ticket count mismatch")
	ErrServerResponse = errors.New("unexpected server response")
	ErrReceiptErrors  = errors.New("service reported receipt errors")
)

// ValidationError is returned when a notification is built with a malformed
// recipient or payload field.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "to" {
		return fmt.Sprintf("expected a valid Expo push token, actual: %s", e.Value)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	if e.Field == "to" {
		return target == ErrInvalidToken
	}
	return target == ErrInvalidPayload
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ServiceError is one entry of a top-level "errors" list.
type ServiceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details Data   `json:"details,omitempty"`
}

// ServerError is raised when the push server is not behaving as expected.
// For example, invalid push notification arguments result in a different
// style of error. Instead of a "data" array containing errors per
// notification, an "error" array is returned.
// {"errors": [
//
//	{"code": "API_ERROR",
//	 "message": "child \"to\" fails because [\"to\" must be a string]. \"value\" must be an array."
//	}
//
// ]}
type ServerError struct {
	Message    string
	StatusCode int
	Body       []byte
	Errors     []ServiceError
	Err        error
}

// NewServerError creates a new ServerError object
func NewServerError(message string, response *http.Response, body []byte, errs []ServiceError) *ServerError {
	e := &ServerError{
		Message: message,
		Body:    body,
		Errors:  errs,
	}
	if response != nil {
		e.StatusCode = response.StatusCode
	}
	return e
}

func (e *ServerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServerError) Is(target error) bool {
	return target == ErrServerResponse
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// BatchErrorKind tells why a whole batch produced no tickets.
type BatchErrorKind int

const (
	// BatchTransport means the request failed or the body could not be parsed.
	BatchTransport BatchErrorKind = iota + 1
	// BatchServiceErrors means the response carried a non-empty "errors" list.
	BatchServiceErrors
	// BatchCountMismatch means "data" was not a list of one ticket per recipient.
	BatchCountMismatch
)

func (k BatchErrorKind) String() string {
	switch k {
	case BatchTransport:
		return "transport"
	case BatchServiceErrors:
		return "service_errors"
	case BatchCountMismatch:
		return "count_mismatch"
	default:
		return "unknown"
	}
}

// BatchError is the outcome of a chunk that yielded no tickets at all.
type BatchError struct {
	Kind BatchErrorKind
	// Chunk is the index of the chunk in dispatch order.
	Chunk int
	// Recipients of the failed chunk, in request order.
	Recipients []Token
	// Errors holds the service-reported errors (BatchServiceErrors).
	Errors []ServiceError
	// Data is the raw "data" member of the response, if any.
	Data json.RawMessage
	// Expected and Actual ticket counts (BatchCountMismatch). Actual is -1
	// when data is not a list.
	Expected int
	Actual   int
	// Err is the underlying transport failure (BatchTransport).
	Err error
}

func (e *BatchError) Error() string {
	switch e.Kind {
	case BatchTransport:
		return fmt.Sprintf("chunk %d: push request failed: %v", e.Chunk, e.Err)
	case BatchServiceErrors:
		if len(e.Errors) == 0 {
			return fmt.Sprintf("chunk %d: expected at least one error, but got none", e.Chunk)
		}
		msgs := make([]string, len(e.Errors))
		for i, se := range e.Errors {
			msgs[i] = se.Message
		}
		return fmt.Sprintf("chunk %d: expo indicated one or more problems: [%s]", e.Chunk, strings.Join(msgs, "; "))
	case BatchCountMismatch:
		actual := "<not a list of tickets>"
		if e.Actual >= 0 {
			actual = fmt.Sprint(e.Actual)
		}
		plural := "s"
		if e.Expected == 1 {
			plural = ""
		}
		return fmt.Sprintf("chunk %d: expected %d ticket%s, actual: %s. The response data can be inspected",
			e.Chunk, e.Expected, plural, actual)
	default:
		return fmt.Sprintf("chunk %d: batch failed", e.Chunk)
	}
}

func (e *BatchError) Is(target error) bool {
	switch e.Kind {
	case BatchTransport:
		return target == ErrTransport
	case BatchServiceErrors:
		return target == ErrServiceErrors
	case BatchCountMismatch:
		return target == ErrCountMismatch
	}
	return false
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// TicketError wraps a ticket the service rejected.
type TicketError struct {
	Ticket *Ticket
}

func (e *TicketError) Error() string {
	return fmt.Sprintf("push ticket error for %s: %s", e.Ticket.Token, e.Ticket.Message)
}

// ReceiptError wraps a receipt reporting a failed delivery.
type ReceiptError struct {
	Receipt *Receipt
}

func (e *ReceiptError) Error() string {
	return fmt.Sprintf("push receipt error for %s: %s", e.Receipt.ID, e.Receipt.Message)
}

// ReceiptsError is returned when a receipt lookup carried a top-level "errors" list.
type ReceiptsError struct {
	Errors []ServiceError
	// Body is the raw response.
	Body json.RawMessage
}

func (e *ReceiptsError) Error() string {
	if len(e.Errors) == 0 {
		return "expected at least one error, but got none"
	}
	msgs := make([]string, len(e.Errors))
	for i, se := range e.Errors {
		msgs[i] = se.Message
	}
	return fmt.Sprintf("expo indicated one or more problems: [%s]", strings.Join(msgs, "; "))
}

func (e *ReceiptsError) Is(target error) bool {
	return target == ErrReceiptErrors
}
