package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeQuota      ErrorType = "quota"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeConflict   ErrorType = "conflict"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewNetworkError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// NewQuotaError signals that the caller's analysis allowance is used up
func NewQuotaError(message string, cause error) *AppError {
	return newAppError(ErrorTypeQuota, ErrCodeLimitReached, message, cause)
}

func NewAuthError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeAuth, code, message, cause)
}

// NewStaleError marks a response that was superseded by a newer request
func NewStaleError(message string) *AppError {
	return newAppError(ErrorTypeConflict, ErrCodeStaleResponse, message, nil)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsType reports whether any error in err's chain is an AppError of type t
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Type == t
}

// HasCode reports whether any error in err's chain carries code
func HasCode(err error, code string) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

func IsQuotaExceeded(err error) bool {
	return IsType(err, ErrorTypeQuota)
}

func IsStale(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// Notification statuses
const (
	StatusLimitReached    = "limit_reached"
	StatusUnauthenticated = "unauthenticated"
	StatusSuperseded      = "superseded"
	StatusError           = "error"
)

// Notification is the user-facing outcome of a failed operation
type Notification struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Notify converts a failure into a status and a message fit for display
func Notify(err error) Notification {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return Notification{Status: StatusError, Message: err.Error()}
	}
	switch appErr.Type {
	case ErrorTypeQuota:
		return Notification{
			Status:  StatusLimitReached,
			Message: appErr.Message + ". Log in to continue tailoring.",
		}
	case ErrorTypeAuth:
		return Notification{Status: StatusUnauthenticated, Message: appErr.Message}
	case ErrorTypeConflict:
		return Notification{Status: StatusSuperseded, Message: appErr.Message}
	default:
		return Notification{Status: StatusError, Message: appErr.Message}
	}
}

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new structured logger
func NewLogger(level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return &Logger{logger: slog.New(handler)}
}

// NewLoggerWithHandler wraps an existing slog handler
func NewLoggerWithHandler(handler slog.Handler) *Logger {
	return &Logger{logger: slog.New(handler)}
}

// LogError logs an application error with appropriate level and context
func (l *Logger) LogError(err error, message string, args ...any) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		logArgs := []any{
			"error_type", appErr.Type,
			"error_code", appErr.Code,
			"error_message", appErr.Message,
		}
		for key, value := range appErr.Context {
			logArgs = append(logArgs, key, value)
		}
		logArgs = append(logArgs, args...)

		l.logger.Error(message, logArgs...)
		return
	}

	logArgs := append([]any{"error", err.Error()}, args...)
	l.logger.Error(message, logArgs...)
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

func (l *Logger) Error(message string, args ...any) {
	l.logger.Error(message, args...)
}

// Slog exposes the underlying slog logger
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// New creates a new logger instance
func New(level string) (*Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	return NewLogger(slogLevel), nil
}

// Common error codes
const (
	ErrCodeFileNotFound            = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable         = "FILE_NOT_READABLE"
	ErrCodeFileNotWritable         = "FILE_NOT_WRITABLE"
	ErrCodeInvalidFormat           = "INVALID_FORMAT"
	ErrCodeInvalidRequest          = "INVALID_REQUEST"
	ErrCodeNetworkTimeout          = "NETWORK_TIMEOUT"
	ErrCodeInvalidConfig           = "INVALID_CONFIG"
	ErrCodeLimitReached            = "LIMIT_REACHED"
	ErrCodeUnauthenticated         = "UNAUTHENTICATED"
	ErrCodeTokenExpired            = "TOKEN_EXPIRED"
	ErrCodeUpstreamFailed          = "UPSTREAM_FAILED"
	ErrCodeUpstreamRejected        = "UPSTREAM_REJECTED"
	ErrCodeSchemaMismatch          = "SCHEMA_MISMATCH"
	ErrCodeGenerationFailed        = "GENERATION_FAILED"
	ErrCodeSessionNotFound         = "SESSION_NOT_FOUND"
	ErrCodeEditNotFound            = "EDIT_NOT_FOUND"
	ErrCodeInvalidStatus           = "INVALID_STATUS"
	ErrCodeStaleResponse           = "STALE_RESPONSE"
	ErrCodePendingStateNotFound    = "PENDING_STATE_NOT_FOUND"
	ErrCodeStateVersionUnsupported = "STATE_VERSION_UNSUPPORTED"
)
