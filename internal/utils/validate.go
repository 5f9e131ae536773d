package util

import (
	"reflect"
	"strings"

	"password-reset/internal/utils/crypto"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON name
// and knows the "password" rule.
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := crypto.RegisterPasswordValidator(v); err != nil {
		return nil, err
	}
	return v, nil
}
