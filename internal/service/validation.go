package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/todo-auth/pkg/util"
)

// fieldMessages maps a JSON field name and failing validator tag to the
// message shown next to that field.
type fieldMessages map[string]map[string]string

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// collectFormErrors validates input and returns every failing field at once.
func collectFormErrors(v *validator.Validate, input any, messages fieldMessages) (map[string]string, error) {
	err := v.Struct(input)
	if err == nil {
		return map[string]string{}, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := fields[field]; seen {
			continue
		}
		msg := messages[field][fe.Tag()]
		if msg == "" {
			msg = "Invalid value."
		}
		fields[field] = msg
	}
	return fields, nil
}

func formErrorsOrNil(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return apperrors.NewFormErrors(fields)
}
