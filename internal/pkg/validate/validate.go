package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	reEmail   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	reOTPCode = regexp.MustCompile(`^[0-9]{6}$`)
)

// v is the package-level singleton validator. It is initialised once at
// package load time with the custom tags registered in init.
var v = validator.New()

func init() {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return reEmail.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("otpcode", func(fl validator.FieldLevel) bool {
		return reOTPCode.MatchString(fl.Field().String())
	})
}

// Email reports whether s has the local@domain.tld shape.
func Email(s string) bool { return reEmail.MatchString(s) }

// Struct validates the given struct using its validate tags.
// Returns a human-readable error or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, message(fe))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "emailaddr":
		return "Invalid email format"
	case "otpcode":
		return "OTP must be 6 digits"
	default:
		return fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag())
	}
}
