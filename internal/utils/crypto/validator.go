package crypto

import (
	"github.com/go-playground/validator/v10"
)

// PasswordTag is the validator tag bound to IsStrong.
const PasswordTag = "password"

// cryptoPasswordRule validates password strength for the validator package
func cryptoPasswordRule(fl validator.FieldLevel) bool {
	return IsStrong(fl.Field().String())
}

// RegisterPasswordValidator registers the "password" validation tag with the validator
func RegisterPasswordValidator(v *validator.Validate) error {
	return v.RegisterValidation(PasswordTag, cryptoPasswordRule)
}
