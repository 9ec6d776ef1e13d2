package httpresp

import (
	"errors"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/blocks/meta"
	"github.com/rise-and-shine/blocks/result"
)

// codeRouterError is used when the router encounters an error.
const codeRouterError = "ROUTER_ERROR"

// WriteError renders any error the way failure results are rendered.
// Trace and details are included only when hideDetails is false.
func WriteError(c *fiber.Ctx, err error, hideDetails bool) error {
	e := mapAnyErrorToErrorX(err)
	info := result.InfoFromError(e)

	schema := errorSchema{
		Kind:    info.Kind,
		Code:    e.Code(),
		Message: info.Message,
		Fields:  e.Fields(),
	}
	if !info.Kind.Expected() {
		schema.Message = internalMessage
	}
	if !hideDetails {
		schema.Message = info.Message
		schema.Trace = e.Trace()
		schema.Details = e.Details()
	}

	return c.Status(StatusOf(info.Kind)).JSON(errorBody{
		TraceID: meta.Find(c.UserContext(), meta.TraceID),
		Error:   schema,
	})
}

// ErrorHandler returns a fiber error handler producing the same body as failure results.
// A response that already carries an error status is left untouched.
func ErrorHandler(hideDetails bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if c.Response().StatusCode() >= fiber.StatusBadRequest {
			return nil
		}
		_ = WriteError(c, err, hideDetails)
		return nil
	}
}

// mapAnyErrorToErrorX converts fiber errors into errx errors of the matching type.
func mapAnyErrorToErrorX(err error) errx.ErrorX {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		var t errx.Type

		switch {
		case fiberErr.Code == fiber.StatusUnauthorized:
			t = errx.T_Authentication
		case fiberErr.Code == fiber.StatusForbidden:
			t = errx.T_Forbidden
		case fiberErr.Code == fiber.StatusNotFound:
			t = errx.T_NotFound
		case fiberErr.Code == fiber.StatusConflict:
			t = errx.T_Conflict
		case fiberErr.Code >= 400 && fiberErr.Code < 500:
			t = errx.T_Validation
		default:
			t = errx.T_Internal
		}

		err = errx.New(
			fiberErr.Message,
			errx.WithCode(codeRouterError),
			errx.WithType(t),
			errx.WithDetails(errx.D{
				"fiber_code": fiberErr.Code,
				"fiber_msg":  fiberErr.Message,
			}),
		)
	}

	return errx.AsErrorX(err)
}
