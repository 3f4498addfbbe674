package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies service failures so callers can tell them apart.
type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindDuplicateReview Kind = "duplicate_review"
	KindNotFound        Kind = "not_found"
	KindUnauthorized    Kind = "unauthorized"
	KindStorage         Kind = "storage_error"
)

// AppError is the error type returned by the service layer.
type AppError struct {
	Kind    Kind
	Code    string
	Field   string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind onto a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindDuplicateReview:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(field, code, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    code,
		Field:   field,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

func NewDuplicateReviewError() *AppError {
	return &AppError{
		Kind:    KindDuplicateReview,
		Code:    ReviewAlreadyExists,
		Message: "you have already reviewed this business",
	}
}

func NewNotFoundError(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func NewUnauthorizedError(code, message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Code: code, Message: message}
}

// NewStorageError wraps a persistence failure. It is surfaced as-is and never retried.
func NewStorageError(err error, op string) *AppError {
	return &AppError{
		Kind:    KindStorage,
		Code:    InternalDatabaseError,
		Message: op,
		Err:     err,
	}
}

// KindOf returns the kind of the first AppError in err's chain, or "" if none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// FieldOf returns the failing field of a validation error.
func FieldOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
