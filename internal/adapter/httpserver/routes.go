package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/pscheid92/valo/internal/platform/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	if s.observability.HTTPMetrics != nil {
		s.echo.Use(s.observability.HTTPMetrics.Middleware())
	}
	s.echo.Use(apperrors.Middleware(s.observability.ErrorsTotal, s.observability.Report))
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            63072000, // 2 years; only sent over HTTPS
		HSTSPreloadEnabled:    true,
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data: blob:; frame-ancestors 'none'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))
	if s.config.MaxImageBytes != "" {
		s.echo.Use(middleware.BodyLimit(s.config.MaxImageBytes))
	}

	rateLimiter := newRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	s.registerHealthRoutes()
	s.registerSessionRoutes(rateLimiter)
	s.registerEditRoutes(rateLimiter)
	s.registerWebsocketRoutes()

	if s.observability.MetricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.observability.MetricsHandler))
	}
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
