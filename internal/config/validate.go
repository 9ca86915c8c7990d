package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/twsgraph/internal/csvio"
	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("delimiter", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" || strings.EqualFold(s, "auto") {
			return true
		}
		r := delimiterRune(s)
		return r != 0 && !strings.ContainsRune("\"\r\n", r)
	})
	_ = validate.RegisterValidation("encoding", func(fl validator.FieldLevel) bool {
		return csvio.ValidEncoding(fl.Field().String())
	})
	_ = validate.RegisterValidation("aeskey", func(fl validator.FieldLevel) bool {
		_, err := decodeKey(fl.Field().String())
		return err == nil
	})
}

// Validate checks cfg and reports the first invalid field.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	e := validationErrs[0]
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "oneof":
		return fmt.Errorf("%s: must be one of [%s], got %q", field, e.Param(), e.Value())
	case "min", "max":
		return fmt.Errorf("%s: out of range (%s %s), got %v", field, e.Tag(), e.Param(), e.Value())
	default:
		return fmt.Errorf("%s: invalid value %v (%s)", field, e.Value(), e.Tag())
	}
}
