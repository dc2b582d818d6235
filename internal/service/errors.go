package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorKind classifies failures so the HTTP layer can pick a status code.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindInvalidInput       ErrorKind = "INVALID_INPUT"
	KindInsufficientStock  ErrorKind = "INSUFFICIENT_STOCK"
	KindInvariantViolation ErrorKind = "INVARIANT_VIOLATION"
	KindConflict           ErrorKind = "CONFLICT"
	KindUnauthorized       ErrorKind = "UNAUTHORIZED"
	KindForbidden          ErrorKind = "FORBIDDEN"
	KindStoreFailure       ErrorKind = "STORE_FAILURE"
)

// AppError is the error type returned by every service.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error

	// Set for KindInsufficientStock only.
	CurrentStock int
	Requested    int
	Unit         string
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by kind, so errors.Is(err, &AppError{Kind: KindNotFound}) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Kind == e.Kind
}

func NotFound(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func InsufficientStock(current int, unit string, requested int) *AppError {
	return &AppError{
		Kind:         KindInsufficientStock,
		Message:      fmt.Sprintf("insufficient stock: current %d%s, requested %d%s", current, unit, requested, unit),
		CurrentStock: current,
		Requested:    requested,
		Unit:         unit,
	}
}

func InvariantViolation(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindInvariantViolation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func StoreFailure(err error) *AppError {
	return &AppError{Kind: KindStoreFailure, Message: "store failure: " + err.Error(), Err: err}
}

// KindOf returns the kind of err, KindStoreFailure for anything that is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStoreFailure
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// storeError converts a repository error into an AppError. what names the
// missing entity for not-found errors.
func storeError(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("%s not found", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &AppError{Kind: KindConflict, Message: what + " already exists", Err: err}
	default:
		return StoreFailure(err)
	}
}
