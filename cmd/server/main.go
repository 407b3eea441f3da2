package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/centrifugal/centrifuge"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/getsentry/sentry-go"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/valo/internal/adapter/httpserver"
	"github.com/pscheid92/valo/internal/adapter/imaging"
	"github.com/pscheid92/valo/internal/adapter/memory"
	"github.com/pscheid92/valo/internal/adapter/metrics"
	"github.com/pscheid92/valo/internal/adapter/redis"
	"github.com/pscheid92/valo/internal/adapter/websocket"
	"github.com/pscheid92/valo/internal/app"
	"github.com/pscheid92/valo/internal/domain"
	"github.com/pscheid92/valo/internal/editor"
	"github.com/pscheid92/valo/internal/platform/config"
	apperrors "github.com/pscheid92/valo/internal/platform/errors"
	"github.com/pscheid92/valo/internal/platform/logging"
	"github.com/pscheid92/valo/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const (
	sentryFlushTimeout  = 2 * time.Second
	shutdownTimeout     = 10 * time.Second
	redisBreakerDelay   = 10 * time.Second
	imageServiceBreaker = "image_service"
)

type observability struct {
	registry *prometheus.Registry
	http     *metrics.HTTPMetrics
	ws       *metrics.WebSocketMetrics
	editor   *metrics.EditorMetrics
	redis    *metrics.RedisMetrics
	breakers *metrics.BreakerMetrics
	errors   *prometheus.CounterVec
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupMetrics() observability {
	reg := metrics.NewRegistry()
	return observability{
		registry: reg,
		http:     metrics.NewHTTPMetrics(reg),
		ws:       metrics.NewWebSocketMetrics(reg),
		editor:   metrics.NewEditorMetrics(reg),
		redis:    metrics.NewRedisMetrics(reg),
		breakers: metrics.NewBreakerMetrics(reg),
		errors:   apperrors.NewErrorsCounter(reg),
	}
}

// setupSentry initializes error reporting when SENTRY_DSN is set and returns
// the flush to run on shutdown.
func setupSentry(cfg *config.Config) func() {
	if cfg.SentryDSN == "" {
		slog.Info("Sentry not configured (SENTRY_DSN not set)")
		return func() {}
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.AppEnv,
		Release:     version.Release(),
		Debug:       !cfg.IsProduction(),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				event.Request.Cookies = ""
				event.Request.Data = ""
			}
			return event
		},
	}); err != nil {
		slog.Error("Failed to initialize Sentry", "error", err)
		return func() {}
	}

	slog.Info("Sentry initialized", "environment", cfg.AppEnv, "release", version.Release())
	return func() { sentry.Flush(sentryFlushTimeout) }
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string, len(headers))
	for k, v := range headers {
		switch strings.ToLower(k) {
		case "authorization", "cookie", "x-api-key":
			filtered[k] = "[Filtered]"
		default:
			filtered[k] = v
		}
	}
	return filtered
}

func setupRedis(ctx context.Context, cfg *config.Config, obs observability) (*goredis.Client, *redis.CircuitBreakerHook) {
	breaker := redis.NewCircuitBreakerHook(redisBreakerDelay, obs.breakers)
	client, err := redis.NewClient(ctx, cfg.RedisURL, redis.NewMetricsHook(obs.redis), breaker)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client, breaker
}

func setupImageService(cfg *config.Config, obs observability) *imaging.Client {
	return imaging.NewClient(imaging.Config{
		BaseURL:         cfg.ProcessorURL,
		Timeout:         cfg.ProcessorTimeout,
		RemoveBgTimeout: cfg.RemoveBgTimeout,
		OnStateChange: func(_, to gobreaker.State) {
			obs.breakers.Transition(imageServiceBreaker, to.String(), gobreakerStateValue(to))
		},
	})
}

func gobreakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	default:
		return metrics.BreakerClosed
	}
}

func setupWebsocket(cfg *config.Config, obs observability, redisClient *goredis.Client) (*centrifuge.Node, http.Handler) {
	node, err := websocket.NewNode(obs.ws, cfg.LogLevel)
	if err != nil {
		slog.Error("Failed to create websocket node", "error", err)
		os.Exit(1)
	}

	if redisClient != nil {
		if err := websocket.SetupRedis(node, redisClient.Options().Addr); err != nil {
			slog.Error("Failed to set up websocket redis broker", "error", err)
			os.Exit(1)
		}
	}

	if err := node.Run(); err != nil {
		slog.Error("Failed to start websocket node", "error", err)
		os.Exit(1)
	}

	handler := centrifuge.NewWebsocketHandler(node, centrifuge.WebsocketConfig{
		CheckOrigin: websocket.NewCheckOrigin(cfg.AppURL, !cfg.IsProduction()),
	})
	return node, handler
}

func runGracefulShutdown(srv *httpserver.Server, appSvc *app.Service, node *centrifuge.Node) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		appSvc.Stop()

		if err := node.Shutdown(shutdownCtx); err != nil {
			slog.Error("Websocket node shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().Version)

	flushSentry := setupSentry(cfg)
	defer flushSentry()

	obs := setupMetrics()

	var (
		store        domain.SessionStore
		redisClient  *goredis.Client
		healthChecks []httpserver.HealthCheck
	)
	if cfg.RedisURL != "" {
		client, breaker := setupRedis(context.Background(), cfg, obs)
		defer func() { _ = client.Close() }()
		redisClient = client
		store = redis.NewSessionStore(client, cfg.SessionTTL)
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				if breaker.State() == circuitbreaker.OpenState {
					return errors.New("circuit breaker is open")
				}
				return client.Ping(ctx).Err()
			},
		})
	} else {
		slog.Info("REDIS_URL not set, keeping sessions in memory")
		store = memory.NewSessionStore(clock, cfg.SessionTTL)
	}

	processor := setupImageService(cfg, obs)
	healthChecks = append(healthChecks, httpserver.HealthCheck{
		Name: imageServiceBreaker,
		Check: func(context.Context) error {
			if processor.State() == gobreaker.StateOpen {
				return errors.New("circuit breaker is open")
			}
			return nil
		},
	})

	node, websocketHandler := setupWebsocket(cfg, obs, redisClient)

	appSvc := app.NewService(editor.Deps{
		Processor: processor,
		Store:     store,
		Publisher: websocket.NewPublisher(node, obs.ws),
		Observer:  obs.editor,
		Clock:     clock,
	}, app.Config{
		Editor: editor.Config{
			PreviewDelay: cfg.PreviewDebounce,
			HistoryDepth: cfg.HistoryDepth,
		},
		IdleTimeout:    cfg.SessionIdleTimeout,
		ActiveSessions: obs.editor.ActiveSessions,
	})

	srv := httpserver.NewServer(cfg, appSvc, websocketHandler, httpserver.Observability{
		HTTPMetrics:    obs.http,
		ErrorsTotal:    obs.errors,
		MetricsHandler: metrics.Handler(obs.registry),
		Report:         apperrors.SentryReporter,
	}, healthChecks)

	done := runGracefulShutdown(srv, appSvc, node)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
