package types

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// passwordSpecials is the set of characters that satisfy the special-character rule.
const passwordSpecials = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// bcrypt ignores input beyond 72 bytes.
const maxPasswordBytes = 72

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the process-wide validator with the job board's custom tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = NewValidator()
	})
	return validate
}

// NewValidator builds a validator that reports JSON field names and understands the
// fullname, strongpassword and httpurl tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("fullname", func(fl validator.FieldLevel) bool {
		return IsFullName(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return PasswordProblem(fl.Field().String()) == ""
	})
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return IsHTTPURL(fl.Field().String())
	})
	return v
}

// IsFullName reports whether s is one or more words made of letters, apostrophes or
// hyphens, separated by single spaces.
func IsFullName(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	for _, word := range strings.Split(s, " ") {
		if word == "" {
			return false
		}
		letters := 0
		for _, r := range word {
			switch {
			case unicode.IsLetter(r):
				letters++
			case r == '\'' || r == '-':
			default:
				return false
			}
		}
		if letters == 0 {
			return false
		}
	}
	return true
}

// PasswordProblem returns a description of the first rule the password breaks, or ""
// when it is acceptable.
func PasswordProblem(pw string) string {
	if len(pw) < 8 {
		return "must be at least 8 characters long"
	}
	if len(pw) > maxPasswordBytes {
		return fmt.Sprintf("must be at most %d bytes long", maxPasswordBytes)
	}
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	switch {
	case !upper:
		return "must contain at least one uppercase letter"
	case !lower:
		return "must contain at least one lowercase letter"
	case !digit:
		return "must contain at least one digit"
	case !special:
		return "must contain at least one special character"
	}
	return ""
}

// IsHTTPURL reports whether s is an absolute http or https URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// FieldError describes the first failing field of a validation run.
type FieldError struct {
	Field   string
	Message string
}

// DescribeValidationError turns validator output into a field name and readable message.
func DescribeValidationError(err error) FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return FieldError{Field: "body", Message: "invalid request"}
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return FieldError{field, "is required"}
	case "email":
		return FieldError{field, "must be a valid email address"}
	case "min":
		return FieldError{field, fmt.Sprintf("must be at least %s characters long", fe.Param())}
	case "max":
		return FieldError{field, fmt.Sprintf("must be at most %s characters long", fe.Param())}
	case "oneof":
		return FieldError{field, fmt.Sprintf("must be one of: %s", fe.Param())}
	case "fullname":
		return FieldError{field, "must contain only letters separated by single spaces"}
	case "strongpassword":
		return FieldError{field, PasswordProblem(fmt.Sprint(fe.Value()))}
	case "httpurl":
		return FieldError{field, "must be an http or https URL"}
	default:
		return FieldError{field, fmt.Sprintf("failed %s validation", fe.Tag())}
	}
}
