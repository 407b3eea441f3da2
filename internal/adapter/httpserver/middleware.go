package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/valo/internal/domain"
	"github.com/pscheid92/valo/internal/editor"
	"github.com/pscheid92/valo/internal/platform/correlation"
	apperrors "github.com/pscheid92/valo/internal/platform/errors"
)

// correlationMiddleware adopts the caller's correlation ID when it is safe,
// otherwise mints one, and echoes it in the response.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.Accept(c.Request().Header.Get(correlation.Header))
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set(correlation.Header, id)
		return next(c)
	}
}

// requireSession resolves the edit session named by the cookie and stores it
// in the echo context. A cookie pointing at a vanished session is dropped.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := s.cookieSessionID(c)
		if !ok {
			return apperrors.NotFoundError("no edit session")
		}

		session, err := s.app.Session(c.Request().Context(), id)
		if errors.Is(err, domain.ErrSessionNotFound) {
			slog.DebugContext(c.Request().Context(), "Cookie references unknown session, dropping", "session_id", id)
			s.forgetSession(c)
			return err
		}
		if err != nil {
			return apperrors.InternalError("failed to load session", err).WithContext("session_id", id)
		}

		c.Set(contextKeySessionID, id)
		c.Set(contextKeySession, session)
		return next(c)
	}
}

func currentSession(c echo.Context) (*editor.Session, error) {
	session, ok := c.Get(contextKeySession).(*editor.Session)
	if !ok {
		return nil, apperrors.InternalError("no session in request context", nil)
	}
	return session, nil
}

func (s *Server) cookieSessionID(c echo.Context) (string, bool) {
	cookie, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return "", false
	}
	id, ok := cookie.Values[sessionKeyEditorID].(string)
	return id, ok && id != ""
}

func (s *Server) rememberSession(c echo.Context, id string) error {
	cookie, _ := s.sessionStore.Get(c.Request(), sessionName)
	cookie.Values[sessionKeyEditorID] = id
	if err := cookie.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session cookie", err)
	}
	return nil
}

func (s *Server) forgetSession(c echo.Context) {
	cookie, _ := s.sessionStore.Get(c.Request(), sessionName)
	cookie.Options.MaxAge = -1
	delete(cookie.Values, sessionKeyEditorID)
	if err := cookie.Save(c.Request(), c.Response().Writer); err != nil {
		slog.WarnContext(c.Request().Context(), "Failed to clear session cookie", "error", err)
	}
}

func writeJSON(c echo.Context, status int, body any) error {
	if err := c.JSON(status, body); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// respondView writes the session view of a successful operation.
func respondView(c echo.Context, view domain.View, err error) error {
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, view)
}
