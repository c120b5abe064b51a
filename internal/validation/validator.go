// Package validation validates API request bodies with validator/v10 and
// converts failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
)

// hex64 matches pubkeys and record ids: 32 bytes, lowercase hex.
var hex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the catalog's custom tags registered:
// hexkey (64 lowercase hex chars), atag (kind:pubkey:d) and wss (wss:// url).
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("hexkey", func(fl validator.FieldLevel) bool {
		return hex64.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("atag", func(fl validator.FieldLevel) bool {
		return IsATag(fl.Field().String())
	})
	_ = v.RegisterValidation("wss", func(fl validator.FieldLevel) bool {
		return strings.HasPrefix(fl.Field().String(), "wss://")
	})

	return &Validator{v: v}
}

// IsATag reports whether s is an addressable reference "kind:pubkey:d".
func IsATag(s string) bool {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return false
	}
	for _, r := range parts[0] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return hex64.MatchString(parts[1])
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}

	return domainerrors.Validation("validation failed").WithDetails(fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "hexkey":
		return "must be 64 lowercase hex characters"
	case "atag":
		return "must be an address of the form kind:pubkey:identifier"
	case "wss":
		return "must be a wss:// URL"
	default:
		return "is invalid"
	}
}
