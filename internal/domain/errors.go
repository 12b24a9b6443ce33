package domain

import (
	"errors"
	"fmt"
	"time"
)

// PortalError represents a standardized error response
type PortalError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *PortalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeSelection       = "SELECTION_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeMissingState    = "MISSING_NAVIGATION_STATE"
	ErrCodeConflict        = "SUBMISSION_PENDING"
	ErrCodeExternalAPI     = "EXTERNAL_API_ERROR"
	ErrCodeInternalServer  = "INTERNAL_SERVER_ERROR"
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"
	ErrCodeUnsupportedFile = "UNSUPPORTED_FILE"
)

var (
	// ErrUnknownFeatureContext is returned for an ai_feature tag outside diagnosis/prognosis/treatment
	ErrUnknownFeatureContext = errors.New("unknown feature context")
	// ErrFlowNotFound is returned when a flow id is unknown or expired
	ErrFlowNotFound = errors.New("flow not found")
	// ErrMissingNavigationState is returned when a page is reached without the state it expects
	ErrMissingNavigationState = errors.New("missing data: page opened without navigation state")
	// ErrSubmissionPending is returned when an upload is already in flight for the flow
	ErrSubmissionPending = errors.New("an upload is already in progress")
	// ErrNewsNotFound is returned when an article id does not exist
	ErrNewsNotFound = errors.New("news article not found")
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// FieldError is a selection error: the user tried to advance before
// completing an earlier selector step.
type FieldError struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return fmt.Sprintf("selection error on %s: %s", e.Field, e.Message)
}

// BackendError is a non-success answer from the AI backend on a read call
type BackendError struct {
	StatusCode int
	Body       string
	Endpoint   string
}

// Error implements the error interface
func (e *BackendError) Error() string {
	return fmt.Sprintf("AI backend returned status %d for %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// NewPortalError creates a new PortalError with timestamp
func NewPortalError(code, message, details, requestID string) *PortalError {
	return &PortalError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewFieldError creates a new FieldError
func NewFieldError(field Field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}
