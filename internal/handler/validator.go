package handler

import (
	stderrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"cartpod/internal/errors"
)

// Validator adapts validator/v10 to echo.Validator and reports failures as
// *errors.ValidationError.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a Validator for request structs.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err
	}

	verr := &errors.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, errors.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Please enter a valid email"
	case "url":
		return fe.Field() + " must be a valid URL"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
