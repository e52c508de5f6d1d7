// Package forms holds the client-side input rules for the auth and todo
// forms. Failures come back as *model.ValidationError keyed by the field's
// JSON name so the UI can print each message next to its field.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/idilsaglam/tada/internal/model"
)

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type Signup struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type Forgot struct {
	Email string `json:"email" validate:"required,email"`
}

type Reset struct {
	Token    string `json:"token" validate:"required,min=10"`
	Password string `json:"password" validate:"required,min=6"`
}

// Todo is used for both the create and the edit form.
type Todo struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// Validate checks a form. Strings are trimmed in place first, except
// passwords and tokens which are taken verbatim.
func Validate(form any) error {
	trim(form)
	return toValidationError(validate.Struct(form))
}

// Struct validates any tagged struct without trimming. The api package uses
// it for response shapes.
func Struct(v any) error {
	return toValidationError(validate.Struct(v))
}

// Field checks a single value against one form field's rules, for
// interactive prompts that validate as the user types.
func Field(form any, field string, value string) error {
	t := reflect.TypeOf(form)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if strings.SplitN(f.Tag.Get("json"), ",", 2)[0] != field {
			continue
		}
		tag := f.Tag.Get("validate")
		if tag == "" {
			return nil
		}
		if err := validate.Var(value, tag); err != nil {
			var ves validator.ValidationErrors
			if errors.As(err, &ves) && len(ves) > 0 {
				return errors.New(message(ves[0]))
			}
			return err
		}
		return nil
	}
	return nil
}

func trim(form any) {
	v := reflect.ValueOf(form)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		switch t.Field(i).Name {
		case "Password", "Token":
			continue
		}
		if f := v.Field(i); f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &model.ValidationError{Fields: map[string]string{}}
	for _, fe := range ves {
		name := fieldPath(fe)
		if _, seen := out.Fields[name]; !seen {
			out.Fields[name] = message(fe)
		}
	}
	return out
}

// fieldPath drops the top-level struct name: "Login.email" -> "email",
// "AuthResult.user.email" -> "user.email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
