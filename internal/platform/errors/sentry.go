package errors

import (
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/valo/internal/platform/correlation"
)

// SentryReporter sends internal errors to Sentry with the request attached.
// Without an initialized Sentry client it does nothing.
func SentryReporter(c echo.Context, err *Error) {
	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub = hub.Clone()

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(c.Request())
		scope.SetTag("error_type", string(err.Type))
		scope.SetTag("route", c.Path())
		if id, ok := correlation.ID(c.Request().Context()); ok {
			scope.SetTag("correlation_id", id)
		}
		if sessionID, ok := c.Get("sessionID").(string); ok {
			scope.SetTag("session_id", sessionID)
		}
		scope.SetContext("error", sentry.Context{"message": err.Message, "context": err.Context})

		cause := error(err)
		if err.Cause != nil {
			cause = err.Cause
		}
		hub.CaptureException(cause)
	})
}
