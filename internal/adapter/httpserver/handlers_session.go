package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/valo/internal/domain"
	apperrors "github.com/pscheid92/valo/internal/platform/errors"
)

func (s *Server) registerSessionRoutes(rateLimiter echo.MiddlewareFunc) {
	s.echo.POST("/api/session", s.handleOpenSession, rateLimiter)
	s.echo.GET("/api/session", s.handleGetSession, rateLimiter, s.requireSession)
	s.echo.DELETE("/api/session", s.handleCloseSession, rateLimiter, s.requireSession)
	s.echo.GET("/api/session/image", s.handleDisplayedImage, rateLimiter, s.requireSession)
	s.echo.GET("/api/session/pending", s.handlePendingChanges, rateLimiter, s.requireSession)
	s.echo.POST("/api/session/save", s.handleSave, rateLimiter, s.requireSession)
}

type openSessionRequest struct {
	Image string `json:"image"`
}

// handleOpenSession starts editing a newly selected image. A session the
// cookie already points at is closed first.
func (s *Server) handleOpenSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req openSessionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if previous, ok := s.cookieSessionID(c); ok {
		if err := s.app.CloseSession(ctx, previous); err != nil {
			slog.WarnContext(ctx, "Failed to close previous session", "session_id", previous, "error", err)
		}
	}

	session, err := s.app.OpenSession(ctx, domain.ImageRef(req.Image))
	if errors.Is(err, domain.ErrEmptyImage) {
		return err
	}
	if err != nil {
		return apperrors.InternalError("failed to open session", err)
	}

	c.Set(contextKeySessionID, session.ID())
	if err := s.rememberSession(c, session.ID()); err != nil {
		return err
	}
	return writeJSON(c, http.StatusCreated, session.View())
}

func (s *Server) handleGetSession(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, session.View())
}

func (s *Server) handleCloseSession(c echo.Context) error {
	id, _ := c.Get(contextKeySessionID).(string)

	if err := s.app.CloseSession(c.Request().Context(), id); err != nil {
		return apperrors.InternalError("failed to close session", err).WithContext("session_id", id)
	}
	s.forgetSession(c)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDisplayedImage(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, map[string]domain.ImageRef{"image": session.DisplayedImage()})
}

func (s *Server) handlePendingChanges(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, session.PendingChanges())
}

type saveRequest struct {
	Path string `json:"path"`
}

type saveResponse struct {
	SavedTo string                `json:"savedTo"`
	Pending domain.PendingChanges `json:"pending"`
}

// handleSave stores the committed image. The response lists what the saved
// file left out so the client can warn about it.
func (s *Server) handleSave(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	pending := session.PendingChanges()
	receipt, err := session.Save(c.Request().Context(), req.Path)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, saveResponse{SavedTo: receipt.Path, Pending: pending})
}
