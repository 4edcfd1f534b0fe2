// Package validation checks request payloads with go-playground/validator and
// turns failures into messages fit for API clients.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/go-playground/validator/v10"
)

// DateLayout is the calendar date format accepted for event dates.
const DateLayout = "2006-01-02"

// MinPasswordLen is the shortest password accepted.
const MinPasswordLen = 6

var namePattern = regexp.MustCompile(`^[a-zA-Z\s\-']{2,50}$`)

// ErrDateNotInFuture is returned by ParseFutureDate for today or earlier.
var ErrDateNotInFuture = errors.New("event date must be in the future")

// Errors is a list of per-field validation failures.
type Errors []FieldError

// FieldError describes one rejected field.
type FieldError struct {
	Field   string
	Message string
}

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages returns the failure messages in field order.
func (e Errors) Messages() []string {
	out := make([]string, len(e))
	for i, fe := range e {
		out[i] = fe.Message
	}
	return out
}

// Validator validates request structs.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the project's custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("personname", validatePersonName)
	_ = v.RegisterValidation("password", validatePassword)
	_ = v.RegisterValidation("datefmt", validateDateFormat)
	_ = v.RegisterValidation("role", validateRole)
	return &Validator{v: v}
}

// Struct validates s. Failures are returned as Errors.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please enter a valid email address"
	case "personname":
		return "Name must be 2-50 characters and contain only letters, spaces, hyphens, and apostrophes"
	case "password":
		if len(fe.Value().(string)) < MinPasswordLen {
			return fmt.Sprintf("Password must be at least %d characters long", MinPasswordLen)
		}
		return "Password must contain at least one letter and one number"
	case "datefmt":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "role":
		return fmt.Sprintf("%s must be one of: %s, %s", field, model.RoleAdmin, model.RoleUser)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

func validatePersonName(fl validator.FieldLevel) bool {
	return namePattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

func validatePassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < MinPasswordLen {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

func validateDateFormat(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}

func validateRole(fl validator.FieldLevel) bool {
	_, err := model.ParseRole(fl.Field().String())
	return err == nil
}

// ParseDate parses a YYYY-MM-DD date to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// ParseFutureDate parses s and requires it to fall strictly after now's
// calendar day.
func ParseFutureDate(s string, now time.Time) (time.Time, error) {
	d, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if !d.After(model.Day(now)) {
		return time.Time{}, ErrDateNotInFuture
	}
	return d, nil
}
