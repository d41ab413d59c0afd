package auth

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation errors: " + strings.Join(parts, ", ")
}

var (
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	digitRegex     = regexp.MustCompile(`\d`)
	specialRegex   = regexp.MustCompile(`[!@#$%^&*]`)

	handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
)

func isComplexPassword(password string) bool {
	return lowercaseRegex.MatchString(password) &&
		uppercaseRegex.MatchString(password) &&
		digitRegex.MatchString(password) &&
		specialRegex.MatchString(password)
}

type signUpInput struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=8,complex,uncommon"`
	FirstName string `validate:"required,max=50"`
	LastName  string `validate:"required,max=50"`
}

type passwordInput struct {
	Password string `validate:"required,min=8,complex,uncommon"`
}

type emailInput struct {
	Email string `validate:"required,email"`
}

type handleInput struct {
	Handle string `validate:"required,handle"`
}

var fieldMessages = map[string]string{
	"Email.required":     "Email is required",
	"Email.email":        "Invalid email format",
	"Password.required":  "Password is required",
	"Password.min":       "Password must be at least 8 characters",
	"Password.complex":   "Password must have 1 upper, 1 lower, 1 number, 1 special character",
	"Password.uncommon":  "Password is too common, choose something unique",
	"Handle.required":    "Handle cannot be empty",
	"Handle.handle":      "Handle must be 3-20 characters, letters, numbers, or underscores only",
	"FirstName.required": "First name is required",
	"FirstName.max":      "First name must be at most 50 characters",
	"LastName.required":  "Last name is required",
	"LastName.max":       "Last name must be at most 50 characters",
}

// fieldKeys names struct fields the way request bodies spell them.
var fieldKeys = map[string]string{
	"FirstName": "first_name",
	"LastName":  "last_name",
}

// Validator checks account input with go-playground/validator.
type Validator struct {
	validate *validator.Validate
}

func NewValidator(commonPasswords []string) *Validator {
	v := validator.New()

	_ = v.RegisterValidation("complex", func(fl validator.FieldLevel) bool {
		return isComplexPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("uncommon", func(fl validator.FieldLevel) bool {
		password := strings.ToLower(fl.Field().String())
		for _, common := range commonPasswords {
			if common != "" && strings.Contains(password, strings.ToLower(common)) {
				return false
			}
		}
		return true
	})
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handlePattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

func (v *Validator) check(input any) error {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		name, ok := fieldKeys[fe.Field()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		if _, seen := fields[name]; seen {
			continue
		}
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		fields[name] = msg
	}
	return &ValidationError{Fields: fields}
}

func (v *Validator) SignUp(email, password string, profile Profile) error {
	return v.check(signUpInput{
		Email:     email,
		Password:  password,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	})
}

func (v *Validator) Password(password string) error {
	return v.check(passwordInput{Password: password})
}

func (v *Validator) Email(email string) error {
	return v.check(emailInput{Email: email})
}

func (v *Validator) Handle(handle string) error {
	return v.check(handleInput{Handle: handle})
}
