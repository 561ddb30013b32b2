package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/monitoring"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryValidation        ErrorCategory = "validation"
	CategoryNotFound          ErrorCategory = "not_found"
	CategoryDivisionUndefined ErrorCategory = "division_undefined"
	CategoryRateLimit         ErrorCategory = "rate_limit"
	CategoryTimeout           ErrorCategory = "timeout"
	CategoryInternal          ErrorCategory = "internal"
	CategoryConfiguration     ErrorCategory = "configuration"
)

var categoryCodes = map[ErrorCategory]string{
	CategoryValidation:        "VALIDATION_ERROR",
	CategoryNotFound:          "NOT_FOUND",
	CategoryDivisionUndefined: "DIVISION_UNDEFINED",
	CategoryRateLimit:         "RATE_LIMIT_EXCEEDED",
	CategoryTimeout:           "TIMEOUT_ERROR",
	CategoryInternal:          "INTERNAL_ERROR",
	CategoryConfiguration:     "CONFIGURATION_ERROR",
}

// AppError wraps an errbuilder error with the HTTP status and category used
// to answer the request
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory
	HTTPStatus int
	Fields     map[string]string
	Timestamp  time.Time
	RequestID  string
	StackTrace string
}

// Code is the stable string clients switch on
func (e *AppError) Code() string {
	if code, ok := categoryCodes[e.Category]; ok {
		return code
	}
	return "UNKNOWN_ERROR"
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code(), e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

type errorBody struct {
	Code       string            `json:"code"`
	Category   ErrorCategory     `json:"category"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Timestamp  string            `json:"timestamp"`
	StackTrace string            `json:"stack_trace,omitempty"`
}

// MarshalJSON renders the client-facing error body
func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(errorBody{
		Code:       e.Code(),
		Category:   e.Category,
		Message:    e.ErrBuilder.Msg,
		Details:    e.Fields,
		RequestID:  e.RequestID,
		Timestamp:  e.Timestamp.Format(time.RFC3339),
		StackTrace: e.StackTrace,
	})
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

func withFields(builder *errbuilder.ErrBuilder, fields map[string]string) *errbuilder.ErrBuilder {
	if len(fields) == 0 {
		return builder
	}
	errorMap := errbuilder.ErrorMap{}
	for k, v := range fields {
		errorMap.Set(k, errors.New(v))
	}
	return builder.WithDetails(errbuilder.NewErrDetails(errorMap))
}

// NewValidationError reports a rejected argument. field may be empty.
func NewValidationError(message, field string, cause error) *AppError {
	fields := map[string]string{}
	if field != "" {
		fields["field"] = field
	}

	builder := withFields(errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message), fields)
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryValidation, http.StatusBadRequest)
	appErr.Fields = fields
	return appErr
}

// NewNotFoundError reports a size bucket missing from the dataset
func NewNotFoundError(bucket survey.SizeBucket, cause error) *AppError {
	fields := map[string]string{"bucket": string(bucket)}

	builder := withFields(errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("size bucket %q not found", string(bucket))), fields)
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryNotFound, http.StatusNotFound)
	appErr.Fields = fields
	return appErr
}

// NewDivisionUndefinedError reports a percentage asked of a bucket with no
// respondents
func NewDivisionUndefinedError(bucket survey.SizeBucket, cause error) *AppError {
	fields := map[string]string{"bucket": string(bucket)}

	builder := withFields(errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("size bucket %q has no respondents", string(bucket))), fields)
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryDivisionUndefined, http.StatusUnprocessableEntity)
	appErr.Fields = fields
	return appErr
}

// NewRateLimitError creates a rate limit error using errbuilder
func NewRateLimitError(retryAfter string) *AppError {
	fields := map[string]string{"retry_after": retryAfter}

	builder := withFields(errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded"), fields)

	appErr := NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
	appErr.Fields = fields
	return appErr
}

// NewTimeoutError creates a timeout error using errbuilder
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryTimeout, http.StatusGatewayTimeout)
}

// NewInternalError creates an internal server error using errbuilder
func NewInternalError(message string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("internal_details", errors.New(message))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)

	if gin.Mode() == gin.DebugMode {
		appErr.StackTrace = captureStackTrace()
	}

	return appErr
}

// NewConfigurationError creates a configuration error using errbuilder
func NewConfigurationError(message string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("config_details", errors.New(message))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("Configuration error").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryConfiguration, http.StatusInternalServerError)
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ToAppError converts any error to an AppError. Survey query errors keep
// their distinct kinds.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var notFound *survey.NotFoundError
	if errors.As(err, &notFound) {
		return NewNotFoundError(notFound.Bucket, err)
	}

	var undefined *survey.DivisionUndefinedError
	if errors.As(err, &undefined) {
		return NewDivisionUndefinedError(undefined.Bucket, err)
	}

	var invalid *survey.ValidationError
	if errors.As(err, &invalid) {
		return NewValidationError(invalid.Error(), invalid.Field, err)
	}
	if errors.Is(err, survey.ErrValidation) {
		return NewValidationError(err.Error(), "", err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("Request deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		return NewTimeoutError("Request cancelled", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// ErrorHandler is a Gin middleware that answers with the last error a
// handler attached to the context
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		appErr.RequestID = c.GetString(monitoring.RequestIDKey)

		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr})
	}
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", err),
			fmt.Errorf("%v", err),
		)
		appErr.StackTrace = captureStackTrace()
		appErr.RequestID = c.GetString(monitoring.RequestIDKey)

		LogError(c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{"error": appErr})
	})
}

// LogError logs an error with appropriate level and context
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.Code(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", err.RequestID,
	)

	switch err.Category {
	case CategoryValidation, CategoryNotFound, CategoryDivisionUndefined, CategoryRateLimit:
		if len(err.Fields) > 0 {
			logEntry.Warn(err.ErrBuilder.Msg, "details", err.Fields)
		} else {
			logEntry.Warn(err.ErrBuilder.Msg)
		}
	case CategoryTimeout:
		logEntry.Info(err.ErrBuilder.Msg, "cause", err.ErrBuilder.Unwrap())
	default:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Error(err.ErrBuilder.Msg, "cause", cause)
		} else {
			logEntry.Error(err.ErrBuilder.Msg)
		}
	}

	if err.StackTrace != "" && gin.Mode() == gin.DebugMode {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// SafeClose safely closes a resource and logs any errors
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
