// Package validation checks incoming student payloads before any storage
// access happens.
package validation

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/roster-api/internal/types"
)

// Messages returned to clients, verbatim.
const (
	MsgFieldsRequired = "All fields are required."
	MsgPRNFormat      = "PRN must be exactly 16 digits long."
)

var (
	ErrFieldsRequired = errors.New(MsgFieldsRequired)
	ErrPRNFormat      = errors.New(MsgPRNFormat)
)

var prnPattern = regexp.MustCompile(`^[0-9]{16}$`)

// validator.Validate caches struct metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("prn", func(fl validator.FieldLevel) bool {
		return ValidPRN(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidPRN reports whether prn is exactly 16 decimal digits.
func ValidPRN(prn string) bool {
	return prnPattern.MatchString(prn)
}

// Student returns nil when every field of s is present and its PRN is well
// formed. Presence is checked before format, so a payload that fails both
// reports ErrFieldsRequired.
func Student(s types.Student) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return ErrFieldsRequired
		}
	}
	return ErrPRNFormat
}
