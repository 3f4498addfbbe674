package util

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// FieldViolation is one failed validation rule, keyed by its JSON path.
type FieldViolation struct {
	Field   string // e.g. "photos[2].size_bytes"
	Tag     string
	Param   string
	Message string
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// rune length after trimming surrounding whitespace
		_ = validate.RegisterValidation("trimmed_min", func(fl validator.FieldLevel) bool {
			var min int
			if _, err := fmt.Sscanf(fl.Param(), "%d", &min); err != nil {
				return false
			}
			return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= min
		})
		_ = validate.RegisterValidation("image_type", func(fl validator.FieldLevel) bool {
			return IsImageContentType(fl.Field().String())
		})
	})
	return validate
}

// ValidateStruct runs the struct's validate tags and returns the violations in
// field order, or nil when data is valid.
func ValidateStruct(data interface{}) []FieldViolation {
	err := getValidator().Struct(data)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldViolation{{Field: "", Tag: "invalid", Message: err.Error()}}
	}

	violations := make([]FieldViolation, 0, len(validationErrors))
	for _, fe := range validationErrors {
		violations = append(violations, FieldViolation{
			Field:   fieldPath(fe.Namespace()),
			Tag:     fe.ActualTag(),
			Param:   fe.Param(),
			Message: violationMessage(fe),
		})
	}
	return violations
}

// fieldPath drops the struct type name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func violationMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	isSlice := fe.Kind() == reflect.Slice

	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		switch {
		case isString:
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		case isSlice:
			return fmt.Sprintf("at most %s %s are allowed", fe.Param(), fe.Field())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "trimmed_min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "email":
		return "invalid email format"
	case "image_type":
		return fmt.Sprintf("%s must be an image content type", fe.Field())
	}
	return fmt.Sprintf("invalid %s", fe.Field())
}

// RegisterAlias names a tag list so shared limits are written once.
func RegisterAlias(alias, tags string) {
	getValidator().RegisterAlias(alias, tags)
}

// IsImageContentType reports whether contentType declares an image media type.
func IsImageContentType(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	return strings.HasPrefix(mediaType, "image/") && len(mediaType) > len("image/")
}
