package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/valo/internal/adapter/metrics"
	"github.com/pscheid92/valo/internal/domain"
	"github.com/pscheid92/valo/internal/editor"
	"github.com/pscheid92/valo/internal/platform/config"
	apperrors "github.com/pscheid92/valo/internal/platform/errors"
)

type appService interface {
	OpenSession(ctx context.Context, image domain.ImageRef) (*editor.Session, error)
	Session(ctx context.Context, id string) (*editor.Session, error)
	CloseSession(ctx context.Context, id string) error
}

// Observability bundles the optional metrics and error reporting hooks.
type Observability struct {
	HTTPMetrics    *metrics.HTTPMetrics
	ErrorsTotal    *prometheus.CounterVec
	MetricsHandler http.Handler
	Report         apperrors.Reporter
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService

	websocketHandler http.Handler
	observability    Observability

	sessionStore *sessions.CookieStore
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, websocketHandler http.Handler, obs Observability, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:             e,
		config:           cfg,
		app:              app,
		websocketHandler: websocketHandler,
		observability:    obs,
		sessionStore:     setupSessionStore(cfg),
		healthChecks:     healthChecks,
		startTime:        time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Cookie session keys
const (
	sessionName         = "valo-session"
	sessionKeyEditorID  = "editor_id"
	contextKeySessionID = "sessionID"
	contextKeySession   = "editSession"
)

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
