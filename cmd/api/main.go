package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/todo-auth/internal/api/http"
	"github.com/spec-kit/todo-auth/internal/api/http/handlers"
	"github.com/spec-kit/todo-auth/internal/auth"
	"github.com/spec-kit/todo-auth/internal/config"
	"github.com/spec-kit/todo-auth/internal/events"
	"github.com/spec-kit/todo-auth/internal/loader"
	"github.com/spec-kit/todo-auth/internal/observability"
	"github.com/spec-kit/todo-auth/internal/persistence"
	"github.com/spec-kit/todo-auth/internal/repository"
	"github.com/spec-kit/todo-auth/internal/service"
	"github.com/spec-kit/todo-auth/internal/session"
	"github.com/spec-kit/todo-auth/internal/worker"
	"github.com/spec-kit/todo-auth/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.DB(), migrations.FS, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var (
		userRepo repository.UserRepository
		todoRepo repository.TodoRepository
		checks   []handlers.HealthCheck
	)
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.DB())
		todoRepo = repository.NewTodoRepository(pg.DB())
		checks = append(checks, handlers.HealthCheck{Name: "postgres", Pinger: pg})
	} else {
		logger.Warn("no database configured; users and todos are kept in memory")
		db := repository.NewMemoryDB()
		userRepo = db.Users()
		todoRepo = db.Todos()
	}

	var sessions session.Store
	backend := cfg.Session.ResolveBackend(cfg.Postgres)
	switch backend {
	case config.SessionBackendPostgres:
		sessions = session.NewPostgresStore(pg.DB())
	case config.SessionBackendRedis:
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		sessions = session.NewRedisStore(redis.Client())
		checks = append(checks, handlers.HealthCheck{Name: "redis", Pinger: redis})
	default:
		sessions = session.NewMemoryStore()
	}
	logger.Info("session store selected", zap.String("backend", backend))

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	codec := auth.NewTokenCodec(cfg.Auth.JWTSecret, auth.WithLeeway(cfg.Auth.TokenLeeway()))
	cookie := auth.NewCookieConfig(cfg.Auth.CookieName, cfg.App.IsProduction(), cfg.Auth.TokenTTL())

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Users:      userRepo,
		Sessions:   sessions,
		Tokens:     codec,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	authenticator := auth.NewAuthenticator(auth.AuthenticatorDeps{
		Tokens:   codec,
		Sessions: sessions,
		Users:    userRepo,
		Cookie:   cookie,
		Metrics:  metrics,
		Logger:   logger,
	})

	sweeper := worker.NewSessionSweeper(sessions, cfg.Session.PruneInterval(), nil, logger, metrics)
	go sweeper.Run(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks...),
		Auth:          handlers.NewAuthHandler(authService, cookie),
		Users:         handlers.NewUsersHandler(authService, cookie),
		Todos:         handlers.NewTodosHandler(service.NewTodoService(todoRepo)),
		Authenticator: authenticator,
		Loaders:       loader.Middleware(userRepo),
		Metrics:       observability.Handler(registry),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
