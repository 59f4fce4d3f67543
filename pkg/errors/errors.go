package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeRateLimit          ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeDeviceUnavailable  ErrorCode = "DEVICE_UNAVAILABLE"
	ErrCodeRecordingStart     ErrorCode = "RECORDING_START_FAILED"
	ErrCodeTemplateSave       ErrorCode = "TEMPLATE_SAVE_FAILED"
	ErrCodeRecordingSave      ErrorCode = "RECORDING_SAVE_FAILED"
	ErrCodeNoVideoSource      ErrorCode = "NO_VIDEO_SOURCE"
	ErrCodeLiveState          ErrorCode = "LIVE_STATE_FAILED"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError represents an application error with code and context
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	Context    map[string]interface{}
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Context:    make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with application error
func WrapError(err error, code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Cause:      err,
		Context:    make(map[string]interface{}),
	}
}

// Common error constructors
func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func NewConflictError(message string) *AppError {
	return NewAppError(ErrCodeConflict, message, http.StatusConflict)
}

func NewRateLimitError() *AppError {
	return NewAppError(ErrCodeRateLimit, "rate limit exceeded", http.StatusTooManyRequests)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

// NewDeviceError reports a failed device acquisition. Recoverable: the
// affected toggle reverts and nothing else changes.
func NewDeviceError(err error) *AppError {
	return WrapError(err, ErrCodeDeviceUnavailable, "device unavailable or permission denied", http.StatusConflict)
}

// NewRecordingStartError reports a failed recording start.
func NewRecordingStartError(err error) *AppError {
	return WrapError(err, ErrCodeRecordingStart, "failed to start recording", http.StatusConflict)
}

// NewTemplateSaveError reports a template write failure. Non-blocking: the
// recording-save step still proceeds.
func NewTemplateSaveError(err error) *AppError {
	return WrapError(err, ErrCodeTemplateSave, "failed to save template", http.StatusBadGateway)
}

// NewRecordingSaveError reports an upload or record-creation failure. Fatal
// to the save operation; the pending blob is retained for retry.
func NewRecordingSaveError(err error) *AppError {
	return WrapError(err, ErrCodeRecordingSave, "failed to save recording", http.StatusBadGateway)
}

func NewNoVideoSourceError() *AppError {
	return NewAppError(ErrCodeNoVideoSource, "no video or ad-video selected", http.StatusBadRequest)
}

func NewLiveStateError(err error) *AppError {
	return WrapError(err, ErrCodeLiveState, "failed to update live state", http.StatusBadGateway)
}

// IsAppError checks if error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	type unwrapper interface {
		Unwrap() error
	}

	if u, ok := err.(unwrapper); ok {
		return GetAppError(u.Unwrap())
	}

	return nil
}

// HasCode reports whether err carries the given application error code.
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}
