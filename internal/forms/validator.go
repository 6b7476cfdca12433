package forms

import "github.com/go-playground/validator/v10"

// Validator checks form payloads against their validate tags.
type Validator struct {
	validator *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validator: validator.New()}
}

// Validate runs the struct tag checks on v.
func (v *Validator) Validate(i any) error {
	return v.validator.Struct(i)
}
