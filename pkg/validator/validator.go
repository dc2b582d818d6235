package validator

import (
	"fmt"
	"strings"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"param,omitempty"`
}

func (e *ErrorResponse) String() string {
	if e.Value != "" {
		return fmt.Sprintf("field '%s' failed on tag '%s=%s'", e.FailedField, e.Tag, e.Value)
	}
	return fmt.Sprintf("field '%s' failed on tag '%s'", e.FailedField, e.Tag)
}

var validate = validator.New()

func init() {
	// Strict business date, e.g. 2025-01-15
	validate.RegisterValidation("date_ymd", func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	})

	validate.RegisterValidation("tx_type", func(fl validator.FieldLevel) bool {
		return model.TransactionType(fl.Field().String()).Valid()
	})
}

// IsDate reports whether s is a real calendar date in YYYY-MM-DD form.
func IsDate(s string) bool {
	if len(s) != len(model.DateLayout) {
		return false
	}
	_, err := time.Parse(model.DateLayout, s)
	return err == nil
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "body", Tag: "invalid"}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Join renders validation failures as one message.
func Join(errs []*ErrorResponse) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.String()
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}
