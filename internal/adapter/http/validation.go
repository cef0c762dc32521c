package http

import (
	"errors"

	"bnpl-ledger/pkg/address"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx reply. Kind carries the ledger
// error kind when there is one.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Kind    string       `json:"kind,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

// accountTags are the struct tags request types use for account fields.
var accountTags = map[string]validator.Func{
	"address":     func(fl validator.FieldLevel) bool { return address.Valid(fl.Field().String()) },
	"nonzeroaddr": func(fl validator.FieldLevel) bool { return !address.IsZero(fl.Field().String()) },
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()
	for tag, fn := range accountTags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// ToFieldErrors turns validator output into per-field messages. Anything
// else comes back as a single entry on field "_".
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, len(ve))
	for i, fe := range ve {
		out[i] = FieldError{Field: fe.Field(), Message: fieldMessage(fe)}
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "address":
		return "must be 0x followed by 40 hex characters"
	case "nonzeroaddr":
		return "must not be the zero address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return fe.Tag() + " validation failed"
}
