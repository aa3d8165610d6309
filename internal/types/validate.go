package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata. Field errors are
// reported under their JSON names.
var validate = newValidator()

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

// Validatable is implemented by every request type.
type Validatable interface {
	Validate() error
}

// Normalizer is implemented by requests whose fields are canonicalized before
// validation, such as emails with surrounding whitespace.
type Normalizer interface {
	Normalize()
}

// Check normalizes req when it supports it and then validates it.
func Check(req Validatable) error {
	if n, ok := req.(Normalizer); ok {
		n.Normalize()
	}
	return req.Validate()
}

// ValidationMessage renders validator errors as "field: rule" pairs. Other errors
// are returned as-is.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), rule))
	}
	return strings.Join(parts, "; ")
}
