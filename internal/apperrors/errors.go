package apperrors

import (
	"errors"
	"net/http"
)

// Code is the machine-readable failure kind returned to clients.
type Code string

const (
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeTooManyRequests Code = "TOO_MANY_REQUESTS"
	CodeInternal        Code = "INTERNAL_SERVER_ERROR"
	CodeBadGateway      Code = "BAD_GATEWAY"
)

// AppError is an error that carries its HTTP status and client code.
type AppError struct {
	Status  int    `json:"-"`
	Code    Code   `json:"code"`
	Message string `json:"error"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Wrap keeps err as the cause. The cause is logged, never rendered.
func (e *AppError) Wrap(err error) *AppError {
	clone := *e
	clone.cause = err
	return &clone
}

func New(status int, code Code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func BadRequest(msg string) *AppError {
	return New(http.StatusBadRequest, CodeBadRequest, msg)
}

func Unauthorized(msg string) *AppError {
	return New(http.StatusUnauthorized, CodeUnauthorized, msg)
}

func Forbidden(msg string) *AppError {
	return New(http.StatusForbidden, CodeForbidden, msg)
}

func NotFound(msg string) *AppError {
	return New(http.StatusNotFound, CodeNotFound, msg)
}

func Conflict(msg string) *AppError {
	return New(http.StatusConflict, CodeConflict, msg)
}

func TooManyRequests(msg string) *AppError {
	return New(http.StatusTooManyRequests, CodeTooManyRequests, msg)
}

func Internal(msg string) *AppError {
	return New(http.StatusInternalServerError, CodeInternal, msg)
}

func BadGateway(msg string) *AppError {
	return New(http.StatusBadGateway, CodeBadGateway, msg)
}

// From converts any error to an AppError, defaulting to INTERNAL_SERVER_ERROR.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error").Wrap(err)
}
