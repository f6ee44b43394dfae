package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound             = "NOT_FOUND"
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeInternal             = "INTERNAL_ERROR"
	CodeTimeout              = "TIMEOUT"
	CodeUnavailable          = "SERVICE_UNAVAILABLE"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeMissingReceipt       = "MISSING_RECEIPT"
	CodeInvalidReceiptFormat = "INVALID_RECEIPT_FORMAT"
	CodeAdvanceNotice        = "ADVANCE_NOTICE"
	CodeBlockedDate          = "BLOCKED_DATE"
	CodePersistence          = "PERSISTENCE_ERROR"
	CodeNotificationDispatch = "NOTIFICATION_DISPATCH_ERROR"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict reports an overlap with another active booking.
func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func InvalidTransition(from, action string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("Cannot %s a booking that is %s.", action, from),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"status": from,
			"action": action,
		},
	}
}

func MissingReceipt() *AppError {
	return &AppError{
		Code:       CodeMissingReceipt,
		Message:    "OR number is required for external users.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func InvalidReceiptFormat() *AppError {
	return &AppError{
		Code:       CodeInvalidReceiptFormat,
		Message:    "OR number must be exactly 7 digits.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// AdvanceNotice names the earliest acceptable date so the caller can retry.
func AdvanceNotice(days int, earliest string) *AppError {
	return &AppError{
		Code: CodeAdvanceNotice,
		Message: fmt.Sprintf("Rescheduled date must be at least %d days in advance. The earliest available date is %s.",
			days, earliest),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"minimum_days":  days,
			"earliest_date": earliest,
		},
	}
}

func BlockedDate(eventName string) *AppError {
	return &AppError{
		Code:       CodeBlockedDate,
		Message:    fmt.Sprintf("The selected date is blocked due to a school event (%s). Please choose another date.", eventName),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"event_name": eventName,
		},
	}
}

func Persistence(message string, err error) *AppError {
	return &AppError{
		Code:       CodePersistence,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NotificationDispatch(message string, err error) *AppError {
	return &AppError{
		Code:       CodeNotificationDispatch,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
