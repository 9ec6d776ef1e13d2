package val

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/code19m/errx"
	"github.com/go-playground/validator/v10"
)

const (
	CodeValidationFailed = "VALIDATION_FAILED"
)

// ValidateSchema checks schema against its `validate` tags. A failure is a
// T_Validation errx error whose fields map the dotted path of every offending
// field (json names, root struct omitted) to a readable description.
func ValidateSchema(schema any) error {
	err := getValidator().Struct(schema)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errx.New(
			"Unknown validation error: "+err.Error(),
			errx.WithCode(CodeValidationFailed),
			errx.WithType(errx.T_Validation),
		)
	}

	fields := make(errx.M, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = Describe(fe.Tag(), fe.Param(), fe.Kind())
	}

	return errx.New(
		"Validation failed. See fields for details.",
		errx.WithCode(CodeValidationFailed),
		errx.WithType(errx.T_Validation),
		errx.WithFields(fields),
	)
}

// fieldPath drops the root struct name from the namespace so nested
// failures read "address.city" rather than "signUp.address.city".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

// Describe renders the human readable message for a failed validation tag.
// kind is the kind of the validated value; the length based tags word their
// message differently for strings.
func Describe(tag, param string, kind reflect.Kind) string {
	if msg, ok := fixedMessages[tag]; ok {
		return msg
	}
	if format, ok := paramMessages[tag]; ok {
		return fmt.Sprintf(format, param)
	}
	if forms, ok := sizeMessages[tag]; ok {
		if kind == reflect.String {
			return fmt.Sprintf(forms[0], param)
		}
		return fmt.Sprintf(forms[1], param)
	}
	if tag == "oneof" {
		return "Must be one of: " + strings.ReplaceAll(param, " ", ", ")
	}
	return "Failed validation: " + tag
}

// sizeMessages holds {string form, other form} pairs.
//
//nolint:gochecknoglobals // read-only lookup tables
var sizeMessages = map[string][2]string{
	"min": {"Must be at least %s characters", "Must be at least %s"},
	"max": {"Must be at most %s characters", "Must be at most %s"},
	"len": {"Must be exactly %s characters", "Must have exactly %s items"},
}

//nolint:gochecknoglobals // read-only lookup tables
var paramMessages = map[string]string{
	"gte":         "Must be greater than or equal to %s",
	"lte":         "Must be less than or equal to %s",
	"gt":          "Must be greater than %s",
	"lt":          "Must be less than %s",
	"containsany": "Must contain at least one of: %s",
	"excludes":    "Must not contain: %s",
	"excludesall": "Must not contain any of: %s",
	"startswith":  "Must start with: %s",
	"endswith":    "Must end with: %s",
	"datetime":    "Must be a valid datetime in format: %s",
	"eqfield":     "Must be equal to %s",
	"nefield":     "Must not be equal to %s",
	"gtfield":     "Must be greater than %s",
	"ltfield":     "Must be less than %s",
	"required_if": "This field is required when %s",
}

//nolint:gochecknoglobals // read-only lookup tables
var fixedMessages = map[string]string{
	"required":       "This field is required",
	"email":          "Invalid email format",
	"alpha":          "Must contain only alphabetic characters",
	"alphanum":       "Must contain only alphanumeric characters",
	"numeric":        "Must be a valid number",
	"url":            "Must be a valid URL",
	"uri":            "Must be a valid URI",
	"uuid":           "Must be a valid UUID",
	"uuid4":          "Must be a valid UUID v4",
	"json":           "Must be valid JSON",
	"base64":         "Must be valid base64",
	"jwt":            "Must be a valid JWT token",
	"hostname":       "Must be a valid hostname",
	"hostname_port":  "Must be a valid host:port pair",
	"fqdn":           "Must be a valid fully qualified domain name",
	"ip":             "Must be a valid IP address",
	"ipv4":           "Must be a valid IPv4 address",
	"ipv6":           "Must be a valid IPv6 address",
	"latitude":       "Must be a valid latitude",
	"longitude":      "Must be a valid longitude",
	"hexcolor":       "Must be a valid hex color",
	"e164":           "Must be a phone number in E.164 format",
	"notblank":       "Must not be blank",
	"sort_direction": "Must be one of: asc, desc",
}
