package middleware

import (
	"time"

	"notequiz/internal/logger"
	"notequiz/internal/util"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestID assigns every request a ULID (or adopts the caller's) and echoes
// it in the response header so logs correlate across retries.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = util.NewULID()
		}
		c.Locals(requestIDKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

// RequestIDFromCtx returns the request id assigned by RequestID, or "".
func RequestIDFromCtx(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestLogger logs one line per request with latency and status.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		logger.Get().Info("Request handled",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.String("request_id", RequestIDFromCtx(c)),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		)
		return err
	}
}
