// Package validation checks a types.StudentInput before the record store
// touches any state.
//
// The rules live in struct tags on types.StudentInput and are executed by
// go-playground/validator. The tags that need runtime configuration (the
// department list, the minimum enrollment year, the current year) are
// registered here as custom validations bound to one Validator instance,
// so two stores with different rules never share state.
//
// Every violated field is reported, one message per field, so a caller
// can show all problems at once instead of the first one only.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/go-playground/validator/v10"
)

// emailPattern is intentionally loose: something@something.something,
// no whitespace and exactly one @ before the domain.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Rules is the startup configuration consumed by the validator.
type Rules struct {
	// Departments is the allowed set. Empty means membership is unchecked.
	Departments []string
	// MinYear is the lowest accepted enrollment year.
	MinYear int
}

// Validator validates student input against a fixed set of Rules.
// It is safe for concurrent use.
type Validator struct {
	validate    *validator.Validate
	departments map[string]struct{}
	options     []string
	minYear     int
	now         func() time.Time
}

// Option customises a Validator.
type Option func(*Validator)

// WithClock overrides the clock used to compute the current year.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New builds a Validator for rules.
func New(rules Rules, opts ...Option) *Validator {
	v := &Validator{
		validate:    validator.New(),
		departments: make(map[string]struct{}, len(rules.Departments)),
		minYear:     rules.MinYear,
		now:         time.Now,
	}
	for _, d := range rules.Departments {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if _, dup := v.departments[d]; dup {
			continue
		}
		v.departments[d] = struct{}{}
		v.options = append(v.options, d)
	}
	for _, opt := range opts {
		opt(v)
	}

	// Report fields by their JSON name ("fullName"), not the Go name
	// ("FullName"), because that is what the client sent.
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// RegisterValidation only fails for an empty tag or a nil func, neither
	// of which can happen here.
	_ = v.validate.RegisterValidation("notblank", notBlank)
	_ = v.validate.RegisterValidation("department", v.isDepartment)
	_ = v.validate.RegisterValidation("enrollment_year", v.isEnrollmentYear)
	_ = v.validate.RegisterValidation("basic_email", isBasicEmail)

	return v
}

// Departments returns the configured department options in config order.
func (v *Validator) Departments() []string {
	out := make([]string, len(v.options))
	copy(out, v.options)
	return out
}

// MaxYear is the current calendar year according to the validator clock.
func (v *Validator) MaxYear() int { return v.now().Year() }

// Check validates in. It returns nil when the input is valid, otherwise a
// map from JSON field name to a human-readable message.
func (v *Validator) Check(in types.StudentInput) map[string]string {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: only possible for a non-struct argument.
		return map[string]string{"input": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = v.message(fe)
	}
	return fields
}

func (v *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("field %s is required", fe.Field())
	case "department":
		return fmt.Sprintf("field %s must be one of: %s", fe.Field(), strings.Join(v.options, ", "))
	case "enrollment_year":
		if _, ok := fieldYear(fe).Int(); !ok {
			return fmt.Sprintf("field %s must be a number", fe.Field())
		}
		return fmt.Sprintf("field %s must be between %d and %d", fe.Field(), v.minYear, v.MaxYear())
	case "basic_email":
		return fmt.Sprintf("field %s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("field %s is invalid", fe.Field())
	}
}

func fieldYear(fe validator.FieldError) types.Year {
	switch val := fe.Value().(type) {
	case types.Year:
		return val
	case string:
		return types.Year(val)
	default:
		return ""
	}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func (v *Validator) isDepartment(fl validator.FieldLevel) bool {
	if len(v.departments) == 0 {
		return true
	}
	_, ok := v.departments[strings.TrimSpace(fl.Field().String())]
	return ok
}

func (v *Validator) isEnrollmentYear(fl validator.FieldLevel) bool {
	year, ok := types.Year(fl.Field().String()).Int()
	if !ok {
		return false
	}
	return year >= v.minYear && year <= v.MaxYear()
}

func isBasicEmail(fl validator.FieldLevel) bool {
	return emailPattern.MatchString(fl.Field().String())
}
