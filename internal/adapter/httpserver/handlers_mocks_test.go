package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/valo/internal/adapter/memory"
	"github.com/pscheid92/valo/internal/app"
	"github.com/pscheid92/valo/internal/domain"
	"github.com/pscheid92/valo/internal/editor"
	"github.com/pscheid92/valo/internal/platform/config"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockProcessor struct {
	processFn func(ctx context.Context, image domain.ImageRef, params domain.Parameters) (domain.ImageRef, error)
	cropFn    func(ctx context.Context, image domain.ImageRef, rect domain.CropRect) (domain.ImageRef, error)
	removeFn  func(ctx context.Context, image domain.ImageRef) (domain.ImageRef, error)
	saveFn    func(ctx context.Context, image domain.ImageRef, path string) (domain.SaveReceipt, error)
}

func (m *mockProcessor) Process(ctx context.Context, image domain.ImageRef, params domain.Parameters) (domain.ImageRef, error) {
	if m.processFn != nil {
		return m.processFn(ctx, image, params)
	}
	return image + "|processed", nil
}

func (m *mockProcessor) Crop(ctx context.Context, image domain.ImageRef, rect domain.CropRect) (domain.ImageRef, error) {
	if m.cropFn != nil {
		return m.cropFn(ctx, image, rect)
	}
	return image + "|cropped", nil
}

func (m *mockProcessor) RemoveBackground(ctx context.Context, image domain.ImageRef) (domain.ImageRef, error) {
	if m.removeFn != nil {
		return m.removeFn(ctx, image)
	}
	return image + "|cut", nil
}

func (m *mockProcessor) Save(ctx context.Context, image domain.ImageRef, path string) (domain.SaveReceipt, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, image, path)
	}
	return domain.SaveReceipt{Path: "/srv/out/" + path}, nil
}

// mockAppService runs a real app.Service unless a function is overridden.
type mockAppService struct {
	svc *app.Service

	openSessionFn  func(ctx context.Context, image domain.ImageRef) (*editor.Session, error)
	sessionFn      func(ctx context.Context, id string) (*editor.Session, error)
	closeSessionFn func(ctx context.Context, id string) error
}

func (m *mockAppService) OpenSession(ctx context.Context, image domain.ImageRef) (*editor.Session, error) {
	if m.openSessionFn != nil {
		return m.openSessionFn(ctx, image)
	}
	return m.svc.OpenSession(ctx, image)
}

func (m *mockAppService) Session(ctx context.Context, id string) (*editor.Session, error) {
	if m.sessionFn != nil {
		return m.sessionFn(ctx, id)
	}
	return m.svc.Session(ctx, id)
}

func (m *mockAppService) CloseSession(ctx context.Context, id string) error {
	if m.closeSessionFn != nil {
		return m.closeSessionFn(ctx, id)
	}
	return m.svc.CloseSession(ctx, id)
}

// --- Test helpers ---

const testSecret = "test-secret-key-32-bytes-long!!!"

func newMockApp(t *testing.T, processor *mockProcessor) *mockAppService {
	t.Helper()
	clock := clockwork.NewRealClock()
	svc := app.NewService(editor.Deps{
		Processor: processor,
		Store:     memory.NewSessionStore(clock, time.Hour),
		Clock:     clock,
	}, app.Config{Editor: editor.Config{PreviewDelay: time.Millisecond}})
	t.Cleanup(svc.Stop)
	return &mockAppService{svc: svc}
}

func newTestServer(t *testing.T, svc appService, opts ...func(*Server)) *Server {
	t.Helper()

	store := sessions.NewCookieStore([]byte(testSecret))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	srv := &Server{
		echo: echo.New(),
		config: &config.Config{
			AppEnv:         "test",
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
			MaxImageBytes:  "1M",
		},
		app:          svc,
		sessionStore: store,
		startTime:    time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withWebsocketHandler(h http.Handler) func(*Server) {
	return func(s *Server) {
		s.websocketHandler = h
	}
}

func withObservability(obs Observability) func(*Server) {
	return func(s *Server) {
		s.observability = obs
	}
}

// client drives the server through its router and keeps the session cookie.
type client struct {
	t       *testing.T
	srv     *Server
	cookies []*http.Cookie
}

func newClient(t *testing.T, srv *Server) *client {
	return &client{t: t, srv: srv}
}

func (cl *client) do(method, path, body string) *httptest.ResponseRecorder {
	cl.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	cl.srv.echo.ServeHTTP(rec, req)

	if set := rec.Result().Cookies(); len(set) > 0 {
		cl.cookies = set
	}
	return rec
}

// open starts a session on image and fails the test otherwise.
func (cl *client) open(image string) domain.View {
	cl.t.Helper()
	rec := cl.do(http.MethodPost, "/api/session", `{"image":"`+image+`"}`)
	require.Equal(cl.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeView(cl.t, rec)
}
