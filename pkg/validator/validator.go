package validator

import (
	"fmt"
	"strings"

	v10 "github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with friendlier messages.
type Validator interface {
	Validate(interface{}) error
	ValidateVar(field string, value interface{}, rules string) error
}

type validator struct {
	v *v10.Validate
}

func New() Validator {
	return &validator{v: v10.New()}
}

func (v *validator) Validate(obj interface{}) error {
	if err := v.v.Struct(obj); err != nil {
		return translate(err)
	}
	return nil
}

func (v *validator) ValidateVar(field string, value interface{}, rules string) error {
	if err := v.v.Var(value, rules); err != nil {
		if _, ok := err.(v10.ValidationErrors); ok {
			return fmt.Errorf("%s is invalid", field)
		}
		return err
	}
	return nil
}

func translate(err error) error {
	verrs, ok := err.(v10.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param()))
		case "len":
			msgs = append(msgs, fmt.Sprintf("%s must be exactly %s characters long", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
