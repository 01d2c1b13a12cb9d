package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/geoclaim/internal/pkg/metrics"
)

// Metrics - счётчик и гистограмма HTTP-запросов по шаблону маршрута
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// шаблон маршрута, а не фактический путь: id сессий не раздувают кардинальность
		route := c.Route().Path
		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		m.HTTPRequests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}
