package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string            `json:"error"`          // code from codes.go
	Kind    Kind              `json:"kind,omitempty"` // taxonomy kind from kinds.go
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RespondWithError writes an error body with an explicit status and code.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// RespondWithAppError maps a service error onto the response. Errors that are not
// AppErrors are treated as storage failures.
func RespondWithAppError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewStorageError(err, "unexpected server error")
	}

	message := appErr.Message
	if appErr.Kind == KindStorage {
		// do not leak driver messages
		message = ParseError(appErr.Err, appErr.Message).Message
		_ = c.Error(err)
	}

	c.JSON(appErr.HTTPStatus(), ErrorResponse{
		Error:   appErr.Code,
		Kind:    appErr.Kind,
		Message: message,
		Fields:  appErr.Fields,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "login required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "access denied"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "server error, please try again later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// RespondWithValidationError reports several invalid fields at once.
func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   ValidationInvalidInput,
		Kind:    KindValidation,
		Message: "invalid input",
		Fields:  fields,
	})
}
