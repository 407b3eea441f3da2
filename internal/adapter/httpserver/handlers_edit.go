package httpserver

import (
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/valo/internal/domain"
	apperrors "github.com/pscheid92/valo/internal/platform/errors"
)

func (s *Server) registerEditRoutes(rateLimiter echo.MiddlewareFunc) {
	s.echo.PUT("/api/session/draft/:key", s.handleSetDraft, rateLimiter, s.requireSession)
	s.echo.DELETE("/api/session/draft/:key", s.handleResetDraft, rateLimiter, s.requireSession)
	s.echo.POST("/api/session/preset/:name", s.handleApplyPreset, rateLimiter, s.requireSession)
	s.echo.PUT("/api/session/mode/:mode", s.handleSetMode, rateLimiter, s.requireSession)

	s.echo.POST("/api/session/apply", s.handleApply, rateLimiter, s.requireSession)
	s.echo.POST("/api/session/undo", s.handleUndo, rateLimiter, s.requireSession)
	s.echo.POST("/api/session/redo", s.handleRedo, rateLimiter, s.requireSession)

	s.echo.PUT("/api/session/crop/ratio/:choice", s.handleSelectCropRatio, rateLimiter, s.requireSession)
	s.echo.POST("/api/session/crop/drag", s.handleDragCrop, rateLimiter, s.requireSession)
	s.echo.PUT("/api/session/crop", s.handleSetCropRect, rateLimiter, s.requireSession)

	s.echo.POST("/api/session/removebg", s.handleStartRemoveBackground, rateLimiter, s.requireSession)
	s.echo.DELETE("/api/session/removebg", s.handleCancelRemoveBackground, rateLimiter, s.requireSession)
}

type draftRequest struct {
	Value *float64 `json:"value"`
}

func (s *Server) handleSetDraft(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	key, err := domain.ParseParamKey(c.Param("key"))
	if err != nil {
		return err
	}

	var req draftRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Value == nil {
		return apperrors.ValidationError("value is required").WithContext("key", string(key))
	}

	view, err := session.SetDraftParameter(c.Request().Context(), key, *req.Value)
	return respondView(c, view, err)
}

func (s *Server) handleResetDraft(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	key, err := domain.ParseParamKey(c.Param("key"))
	if err != nil {
		return err
	}

	view, err := session.ResetDraftParameter(c.Request().Context(), key)
	return respondView(c, view, err)
}

func (s *Server) handleApplyPreset(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	view, err := session.ApplyPreset(c.Request().Context(), c.Param("name"))
	return respondView(c, view, err)
}

func (s *Server) handleSetMode(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	mode, err := domain.ParseMode(c.Param("mode"))
	if err != nil {
		return err
	}

	view, err := session.SetActiveMode(c.Request().Context(), mode)
	return respondView(c, view, err)
}

func (s *Server) handleApply(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	view, err := session.Apply(c.Request().Context())
	return respondView(c, view, err)
}

func (s *Server) handleUndo(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	view, err := session.Undo(c.Request().Context())
	return respondView(c, view, err)
}

func (s *Server) handleRedo(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	view, err := session.Redo(c.Request().Context())
	return respondView(c, view, err)
}

// handleSelectCropRatio takes the ratio from the path ("9:16", "square",
// ...) and the rendered frame size from the optional body.
func (s *Server) handleSelectCropRatio(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	raw, err := url.PathUnescape(c.Param("choice"))
	if err != nil {
		return apperrors.ValidationError("invalid crop choice")
	}
	choice, err := domain.ParseCropChoice(raw)
	if err != nil {
		return err
	}

	var frame domain.Frame
	if err := c.Bind(&frame); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	view, err := session.SelectCropRatio(c.Request().Context(), choice, frame)
	return respondView(c, view, err)
}

type dragRequest struct {
	Handle string  `json:"handle"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
}

func (s *Server) handleDragCrop(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	var req dragRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	handle, err := domain.ParseHandle(req.Handle)
	if err != nil {
		return err
	}

	view, err := session.DragCrop(c.Request().Context(), handle, req.DX, req.DY)
	return respondView(c, view, err)
}

func (s *Server) handleSetCropRect(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	var rect domain.CropRect
	if err := c.Bind(&rect); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	view, err := session.SetCropRect(c.Request().Context(), rect)
	return respondView(c, view, err)
}

func (s *Server) handleStartRemoveBackground(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	view, err := session.StartRemoveBackground(c.Request().Context())
	return respondView(c, view, err)
}

func (s *Server) handleCancelRemoveBackground(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}

	view, err := session.CancelRemoveBackground(c.Request().Context())
	return respondView(c, view, err)
}
