package middleware

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"crudview/internal/logging"
)

// Logger logs one JSON line per request with request_id, method, path, status and
// latency in milliseconds. The request-scoped logger is attached to the user context
// so handlers can log with zerolog.Ctx and carry the same request_id, plus trace_id
// when the request is traced.
func Logger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		rid, _ := c.Locals(RequestIDLocalKey).(string)

		lc := log.With().Str("request_id", rid)
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			lc = lc.Str("trace_id", sc.TraceID().String())
		}
		reqLog := lc.Logger()
		c.SetUserContext(reqLog.WithContext(c.UserContext()))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		ev := reqLog.Info()
		if status >= fiber.StatusInternalServerError {
			ev = reqLog.Error().AnErr("error", err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000).
			Msg("")

		return err
	}
}

// LoggerWithWriter is Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.New(w, loc))
}

// statusOf is the status the error handler will answer with for err.
func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
