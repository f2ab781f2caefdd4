package handler

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"crudview/internal/http/middleware"
)

// ErrorTemplate is rendered for browser requests that fail.
const ErrorTemplate = "crudview/error.html"

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// ErrorHandler returns a Fiber global error handler. Clients that prefer HTML get an
// error page; everything else gets the JSON error envelope. Messages of 4xx fiber
// errors are shown as is, 5xx details are logged and never sent.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		code, message := describe(status)
		if status < fiber.StatusInternalServerError && fe != nil && fe.Message != http.StatusText(status) {
			message = fe.Message
		}
		if status >= fiber.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("event", "request_failed").
				Str("request_id", middleware.RequestIDFrom(c)).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("")
		}

		if wantsHTML(c) {
			c.Status(status)
			rerr := c.Render(ErrorTemplate, fiber.Map{
				"status":     status,
				"title":      http.StatusText(status),
				"message":    message,
				"request_id": middleware.RequestIDFrom(c),
			})
			if rerr == nil {
				return nil
			}
			log.Error().Err(rerr).Str("event", "error_page_failed").Msg("")
		}
		return writeError(c, status, code, message)
	}
}

func describe(status int) (code, message string) {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST", "bad request"
	case fiber.StatusNotFound:
		return "NOT_FOUND", "resource not found"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED", "method not allowed"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE", "request body too large"
	case fiber.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE", "dependency unavailable"
	default:
		return "INTERNAL_ERROR", "internal server error"
	}
}

// wantsHTML reports whether the client prefers an HTML page. A missing Accept header
// counts as JSON.
func wantsHTML(c *fiber.Ctx) bool {
	if c.App().Config().Views == nil || c.Get(fiber.HeaderAccept) == "" {
		return false
	}
	return c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML
}
