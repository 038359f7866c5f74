package domain

import (
	"fmt"
	"net/http"
)

// ErrorCode identifies a failure class. Codes are stable machine-readable
// strings; callers branch on them, never on messages.
type ErrorCode string

const (
	// Input-shape and request errors
	CodeSchemaInvalid ErrorCode = "SCHEMA_INVALID"
	CodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	CodeBadRequest    ErrorCode = "BAD_REQUEST"
	CodeEmptyQuiz     ErrorCode = "EMPTY_QUIZ"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"

	// Authorization / resolution errors
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeNotFound     ErrorCode = "NOT_FOUND"

	// Quota
	CodeUsageLimitReached ErrorCode = "USAGE_LIMIT_REACHED"

	// Model router errors. Empty-response and non-JSON are the transient
	// class: eligible for router fallback and one orchestrator retry.
	CodeModelEmptyResponse ErrorCode = "MODEL_EMPTY_RESPONSE"
	CodeModelNonJSON       ErrorCode = "MODEL_NON_JSON"
	CodeModelInvalidOutput ErrorCode = "MODEL_INVALID_OUTPUT"
	CodeAuthError          ErrorCode = "AUTH_ERROR"
	CodeRateLimit          ErrorCode = "RATE_LIMIT"
	CodeOpenAIError        ErrorCode = "OPENAI_ERROR"

	// Post-generation validation and persistence
	CodeQuizValidationFailed ErrorCode = "QUIZ_VALIDATION_FAILED"
	CodeServerError          ErrorCode = "SERVER_ERROR"
)

// ErrorDetail is one diagnostic issue attached to an error. At most three
// are ever returned across the boundary.
type ErrorDetail struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// MaxErrorDetails caps the diagnostic issues returned to callers.
const MaxErrorDetails = 3

// DomainError is the single error type crossing the orchestration boundary.
type DomainError struct {
	Code    ErrorCode     `json:"code"`
	Message string        `json:"message"`
	Status  int           `json:"status"`
	Details []ErrorDetail `json:"details,omitempty"`
	Cause   error         `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// WithDetails returns a copy carrying up to MaxErrorDetails issues.
func (e *DomainError) WithDetails(details []ErrorDetail) *DomainError {
	c := *e
	if len(details) > MaxErrorDetails {
		details = details[:MaxErrorDetails]
	}
	c.Details = details
	return &c
}

func statusFor(code ErrorCode) int {
	switch code {
	case CodeSchemaInvalid, CodeConfigInvalid, CodeBadRequest, CodeEmptyQuiz, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeUsageLimitReached:
		return http.StatusPaymentRequired
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeModelEmptyResponse, CodeModelNonJSON, CodeModelInvalidOutput, CodeOpenAIError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewError creates a DomainError with the fixed status for its code.
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Status:  statusFor(code),
		Cause:   cause,
	}
}

func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewBadRequestError(message string) *DomainError {
	return NewError(CodeBadRequest, message, nil)
}

func NewServerError(message string, cause error) *DomainError {
	return NewError(CodeServerError, message, cause)
}

func NewUsageLimitError(limit int) *DomainError {
	return NewError(CodeUsageLimitReached,
		fmt.Sprintf("Free plan limit of %d quizzes reached. Upgrade to create more.", limit), nil)
}

// IsTransientModelError reports whether err belongs to the transient model
// failure class: recoverable by re-issuing the same logical request.
func IsTransientModelError(err *DomainError) bool {
	if err == nil {
		return false
	}
	return err.Code == CodeModelEmptyResponse || err.Code == CodeModelNonJSON
}

// ValidationError is a single field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates field failures; it is itself an error so
// validators can hand results straight to the error middleware.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Error()
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewInvalidFormatError(field, value string) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("has invalid format: %q", value)}
}

func NewOutOfRangeError(field string, got, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d, got %d", min, max, got)}
}
