// Package validation wraps go-playground/validator with the rules and
// messages the API reports back to clients.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"todo/internal/model"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// New returns a validator that names fields by their json tag and knows the
// custom "username" and "notnumeric" rules.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notnumeric", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return true
			}
		}
		return s == ""
	})
	return v
}

// Struct validates s and converts rule failures into a *model.ValidationError.
// Errors that are not rule failures are returned unchanged.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := model.NewValidationError()
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), Message(fe))
	}
	return verr
}

func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		if fe.Param() == "1" {
			return "This field may not be blank."
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "notnumeric":
		return "This password is entirely numeric."
	case "eqfield":
		return "The two password fields didn't match."
	default:
		return "Invalid value."
	}
}

// DecodeError turns a JSON body error into a field error when the decoder
// can point at one. ok is false for malformed bodies.
func DecodeError(err error) (*model.ValidationError, bool) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		verr := model.NewValidationError()
		verr.Add(typeErr.Field, "Incorrect type.")
		return verr, true
	}
	return nil, false
}
