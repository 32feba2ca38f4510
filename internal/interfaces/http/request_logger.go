package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/pkg/logger"
)

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalRequestID).(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

// RequestLogger registra una línea por petición. Va después de requestid y antes de las rutas.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// El ErrorHandler escribe el estado final.
			_ = c.App().ErrorHandler(c, err)
		}
		status := c.Response().StatusCode()
		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", GetUserID(c)).
			Str("request_id", requestID(c)).
			Msg("http")
		return nil
	}
}
