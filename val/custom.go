package val

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

func registerCustomValidations(v *validator.Validate) {
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return IsNotBlank(fl.Field().String())
	})
	_ = v.RegisterValidation("sort_direction", func(fl validator.FieldLevel) bool {
		return IsSortDirection(fl.Field().String())
	})
}

// IsNotBlank reports whether s has any non-whitespace character.
func IsNotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsSortDirection reports whether s is empty, "asc" or "desc" (case-insensitive).
func IsSortDirection(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "desc":
		return true
	}
	return false
}
