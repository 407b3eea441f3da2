package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/centrifugal/centrifuge"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/valo/internal/domain"
)

func (s *Server) registerWebsocketRoutes() {
	if s.websocketHandler == nil {
		return
	}
	s.echo.GET("/connection/websocket", echo.WrapHandler(s.centrifugeAuthMiddleware(s.websocketHandler)))
}

// centrifugeAuthMiddleware authenticates the websocket upgrade with the
// session cookie. The edit session ID becomes the centrifuge user ID, which
// the node maps to the session's channel.
func (s *Server) centrifugeAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := s.sessionStore.Get(r, sessionName)
		if err != nil {
			http.Error(w, "invalid session cookie", http.StatusBadRequest)
			return
		}
		id, ok := cookie.Values[sessionKeyEditorID].(string)
		if !ok || id == "" {
			http.Error(w, "no edit session", http.StatusUnauthorized)
			return
		}

		if _, err := s.app.Session(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				http.Error(w, "session not found", http.StatusNotFound)
				return
			}
			slog.ErrorContext(r.Context(), "Failed to load session for websocket", "session_id", id, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		cred := &centrifuge.Credentials{UserID: id}
		next.ServeHTTP(w, r.WithContext(centrifuge.SetCredentials(r.Context(), cred)))
	})
}
