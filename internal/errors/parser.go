package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a user-safe code and message derived from a raw error.
type ErrorInfo struct {
	Code    string
	Message string
}

// IsDuplicateKeyError reports whether err is a unique constraint violation.
// gorm translates it when TranslateError is enabled; the string checks cover
// drivers and paths where it is not.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "duplicate key") ||
		strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "sqlstate 23505")
}

// ParseError turns a persistence error into a message that hides driver details
// but still tells the user what went wrong.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "server error",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	if IsDuplicateKeyError(err) {
		return parseDuplicateKeyError(errStrLower)
	}

	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStrLower)
	}

	if strings.Contains(errStrLower, "not null constraint") || strings.Contains(errStrLower, "violates not-null constraint") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "a required field is missing",
		}
	}

	if strings.Contains(errStrLower, "check constraint") {
		if strings.Contains(errStrLower, "rating") {
			return ErrorInfo{Code: ReviewInvalidRating, Message: "rating must be between 1 and 5"}
		}
		return ErrorInfo{Code: ValidationInvalidInput, Message: "invalid input"}
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "the data store is unavailable, please try again",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "reviews") && (strings.Contains(errLower, "user_id") || strings.Contains(errLower, "business_id")):
		return ErrorInfo{Code: ReviewAlreadyExists, Message: "you have already reviewed this business"}
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "email is already in use"}
	case strings.Contains(errLower, "nickname"):
		return ErrorInfo{Code: AuthNicknameExists, Message: "nickname is already in use"}
	case strings.Contains(errLower, "slug"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "business identifier is already in use"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "the record already exists"}
}

func parseForeignKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "still referenced"):
		return ErrorInfo{Code: ResourceConflict, Message: "the record is still referenced and cannot be removed"}
	case strings.Contains(errLower, "user_id"):
		return ErrorInfo{Code: UserNotFound, Message: "user does not exist"}
	case strings.Contains(errLower, "business_id"):
		return ErrorInfo{Code: BusinessNotFound, Message: "business does not exist"}
	case strings.Contains(errLower, "review_id"):
		return ErrorInfo{Code: ReviewNotFound, Message: "review does not exist"}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: "referenced record was not found"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "business"):
		return "business not found"
	case strings.Contains(contextLower, "user"):
		return "user not found"
	case strings.Contains(contextLower, "review"):
		return "review not found"
	}
	return "requested record not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create") || strings.Contains(contextLower, "submit"):
		return "failed to save, please try again later"
	case strings.Contains(contextLower, "update") || strings.Contains(contextLower, "moderate"):
		return "failed to update, please try again later"
	}
	return "server error, please try again later"
}
