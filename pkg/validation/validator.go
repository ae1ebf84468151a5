package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	PasswordMinLen = 4
	PasswordMaxLen = 30
)

var (
	once sync.Once
	std  *validator.Validate
)

// Validator returns the shared validator: JSON tag names in errors plus the
// "password" and "gradyear" rules.
func Validator() *validator.Validate {
	once.Do(func() {
		std = validator.New(validator.WithRequiredStructEnabled())
		configure(std)
	})
	return std
}

// Init configures the global validator used by Gin's binding.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("gradyear", func(fl validator.FieldLevel) bool {
		y := fl.Field().Int()
		return y == 0 || (y >= 1900 && y <= 2200)
	})
}

// Struct validates s with the shared validator.
func Struct(s any) error {
	return Validator().Struct(s)
}

// StrongPassword requires a lowercase letter, an uppercase letter, a digit,
// a symbol (anything outside [A-Za-z0-9], underscore included) and 4..30 runes.
func StrongPassword(p string) bool {
	n := utf8.RuneCountInString(p)
	if n < PasswordMinLen || n > PasswordMaxLen {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r == '_' || !(unicode.IsLetter(r) || unicode.IsDigit(r)):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "password":
		return "must contain a lowercase letter, an uppercase letter, a number and a symbol, 4 to 30 characters"
	case "gradyear":
		return "must be a plausible graduation year"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters"
	case "len":
		return "must be exactly " + param + " characters"
	case "numeric":
		return "must be numeric"
	case "e164":
		return "must be a valid phone number"
	default:
		return "is invalid"
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
