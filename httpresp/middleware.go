package httpresp

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/meta"
	"github.com/rise-and-shine/blocks/panics"
	"github.com/rise-and-shine/blocks/tracing"
)

const (
	// HeaderTraceID lets a caller continue an existing trace.
	HeaderTraceID = "X-Trace-Id"

	CodePanicRecovered = panics.CodeRecovered
)

// MetaInject collects the trace id, client address and user agent into the request
// context. User and tenant keys are left empty for authentication middlewares to fill.
func MetaInject() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(HeaderTraceID)
		if traceID == "" {
			traceID = tracing.StartingTraceID(c.UserContext())
		}
		c.Set(HeaderTraceID, traceID)

		ctx := meta.WithService(meta.InjectMetaToContext(c.UserContext(), map[meta.ContextKey]string{
			meta.TraceID:   traceID,
			meta.IPAddress: c.IP(),
			meta.UserAgent: c.Get(fiber.HeaderUserAgent),
		}))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// Recovery turns a panic in the handler chain into an internal error that the
// error handler renders.
func Recovery(l logger.Logger) fiber.Handler {
	l = l.Named("httpresp.recovery")

	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panics.Handle(r, l.WithContext(c.UserContext()), "recovered from panic")
			}
		}()

		return c.Next()
	}
}
