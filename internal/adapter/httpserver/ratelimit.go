package httpserver

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/pscheid92/valo/internal/platform/errors"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

// newRateLimiter limits API calls per client IP. echo hands the handlers'
// result to its own error handler, bypassing route middleware, so
// rejections are written here in the structured error format.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		ErrorHandler: func(c echo.Context, err error) error {
			return writeRejection(c, apperrors.ValidationError("cannot identify client"))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			slog.DebugContext(c.Request().Context(), "Rate limit exceeded", "client", identifier)
			return writeRejection(c, apperrors.RateLimitedError("rate limit exceeded"))
		},
	})
}

func writeRejection(c echo.Context, rejection *apperrors.Error) error {
	return c.JSON(rejection.HTTPStatus(), rejection.ToResponse())
}
