package http

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// public ids = 32-char lowercase hex
	_ = v.RegisterValidation("hex32", func(fl validator.FieldLevel) bool {
		return reHex32.MatchString(fl.Field().String())
	})
	// terminal checkpoint outcomes a client may write
	_ = v.RegisterValidation("cpstatus", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "pass", "fail", "issue", "na":
			return true
		}
		return false
	})
	// checkpoint failure severities
	_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "minor", "major", "critical":
			return true
		}
		return false
	})
	// photo upload states a client may report
	_ = v.RegisterValidation("uploadstatus", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "uploading", "completed", "failed":
			return true
		}
		return false
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "hex32":
			out = append(out, FieldError{Field: field, Message: "must be 32-char lowercase hex"})
		case "cpstatus":
			out = append(out, FieldError{Field: field, Message: "must be one of pass, fail, issue, na"})
		case "severity":
			out = append(out, FieldError{Field: field, Message: "must be one of minor, major, critical"})
		case "uploadstatus":
			out = append(out, FieldError{Field: field, Message: "must be one of uploading, completed, failed"})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "min":
			out = append(out, FieldError{Field: field, Message: "must have at least " + e.Param() + " entries"})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
