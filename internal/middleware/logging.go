package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/slicemill/pizza-order-service/internal/observability"
)

// RequestLogger logs every request locally, bumps the request counters
// and ships a structured event to the log aggregator. Secrets never
// appear in the shipped fields.
func RequestLogger(log zerolog.Logger, metrics *observability.Metrics, shipper *observability.LogShipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			metrics.IncRequest(c.Request().Method)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			elapsed := time.Since(start)
			log.Info().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Dur("elapsed", elapsed).
				Msg("request")

			shipper.Ship("http_request", observability.ScrubFields(map[string]interface{}{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     status,
				"elapsed_ms": elapsed.Milliseconds(),
			}))
			return nil
		}
	}
}
