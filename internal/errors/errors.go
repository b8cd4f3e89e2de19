package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried by APIError and exposed as the error_code extension
// of a problem response.
const (
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeInvalidJSON      = "INVALID_JSON"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeSummaryNotReady  = "SUMMARY_NOT_READY"
	CodeRunInProgress    = "RUN_IN_PROGRESS"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// codeProblemTypes maps an error code to its RFC 7807 problem type.
var codeProblemTypes = map[string]string{
	CodeInvalidParameter: TypeBadParameter,
	CodeInvalidJSON:      TypeBadParameter,
	CodePayloadTooLarge:  TypeBadParameter,
	CodeValidationFailed: TypeValidation,
	CodeNotFound:         TypeNotFound,
	CodeSummaryNotReady:  TypeNotFound,
	CodeRunInProgress:    TypeConflict,
	CodeRateLimited:      TypeRateLimit,
}

// APIError is a transport-level failure: a request the dashboard refuses
// before any data is touched, or a state that makes the request premature.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ProblemType returns the problem type URI for the error code.
func (e *APIError) ProblemType() string {
	if t, ok := codeProblemTypes[e.ErrorCode]; ok {
		return t
	}
	return TypeInternal
}

// ValidationError is a single field failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors lists every failing field of a request.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// New creates an APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates an APIError carrying details for the client.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

var (
	ErrInvalidParameter = New(http.StatusBadRequest, CodeInvalidParameter, "Invalid parameter value")
	ErrSummaryNotReady  = New(http.StatusNotFound, CodeSummaryNotReady, "No pipeline run has completed yet")
	ErrRunInProgress    = New(http.StatusConflict, CodeRunInProgress, "A pipeline run is already in progress")
)

// ErrValidation reports one invalid request field.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// NewValidationErrors reports every invalid request field.
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationErrors{Errors: errors})
}

// NotFoundError reports a missing resource, such as a run status before the
// first run.
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource), resource)
}
