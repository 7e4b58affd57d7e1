package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/arklim/account-auth/internal/core/port"
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned before any side effect when input is malformed.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
	})
	return validate
}

func validateStruct(input any) error {
	err := structValidator().Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate input: %w", err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "number", "numeric":
		return "must contain only digits"
	default:
		return "is invalid"
	}
}

// ValidateSignup checks signup input shape and, when policy is set, password strength.
func ValidateSignup(in SignupInput, policy port.PasswordPolicyValidator) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if policy != nil {
		if err := policy.Validate(in.Password, in.Name, in.Email); err != nil {
			return &ValidationError{Fields: []FieldError{{Field: "password", Message: err.Error()}}}
		}
	}
	return nil
}

// ValidateLogin checks login input shape.
func ValidateLogin(in LoginInput) error {
	return validateStruct(in)
}

// ValidateVerifyTwoFactor checks the step-up token and code are present and well formed.
func ValidateVerifyTwoFactor(in VerifyTwoFactorInput) error {
	return validateStruct(in)
}

type codeInput struct {
	Code string `json:"code" validate:"required,len=6,number"`
}

// ValidateCode checks a TOTP code is six digits.
func ValidateCode(code string) error {
	return validateStruct(codeInput{Code: code})
}
