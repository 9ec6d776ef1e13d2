package result

import (
	"fmt"

	"github.com/code19m/errx"
)

// Kind classifies a failure.
type Kind string

const (
	NotFound         Kind = "not_found"
	ValidationFailed Kind = "validation_failed"
	Conflict         Kind = "conflict"
	Unauthorized     Kind = "unauthorized"
	Forbidden        Kind = "forbidden"
	Unexpected       Kind = "unexpected"
)

// Expected reports whether k is an anticipated domain condition rather than a defect.
func (k Kind) Expected() bool {
	return k != Unexpected && k != ""
}

func (k Kind) errxType() errx.Type {
	switch k {
	case NotFound:
		return errx.T_NotFound
	case ValidationFailed:
		return errx.T_Validation
	case Conflict:
		return errx.T_Conflict
	case Unauthorized:
		return errx.T_Authentication
	case Forbidden:
		return errx.T_Forbidden
	default:
		return errx.T_Internal
	}
}

// KindOf maps an errx type to a Kind.
func KindOf(t errx.Type) Kind {
	switch t {
	case errx.T_NotFound:
		return NotFound
	case errx.T_Validation:
		return ValidationFailed
	case errx.T_Conflict:
		return Conflict
	case errx.T_Authentication:
		return Unauthorized
	case errx.T_Forbidden:
		return Forbidden
	default:
		return Unexpected
	}
}

// ErrorInfo describes a failure.
type ErrorInfo struct {
	Kind    Kind              `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`

	cause error
}

// InfoFromError builds an ErrorInfo from any error, keeping it as the cause.
func InfoFromError(err error) ErrorInfo {
	e := errx.AsErrorX(err)
	return ErrorInfo{
		Kind:    KindOf(e.Type()),
		Code:    e.Code(),
		Message: err.Error(),
		Fields:  e.Fields(),
		cause:   err,
	}
}

// Cause returns the original error the info was built from, if any.
func (e ErrorInfo) Cause() error {
	return e.cause
}

// AsError converts the info into an errx error. The original cause is preserved when present.
func (e ErrorInfo) AsError() error {
	if e.cause != nil {
		return e.cause
	}
	return errx.New(
		e.Message,
		errx.WithType(e.Kind.errxType()),
		errx.WithCode(e.Code),
		errx.WithFields(errx.M(e.Fields)),
	)
}

func (e ErrorInfo) String() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Code, e.Message)
}
