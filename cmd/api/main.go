package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/storefront-auth/internal/api/http"
	"github.com/spec-kit/storefront-auth/internal/api/http/handlers"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/events"
	"github.com/spec-kit/storefront-auth/internal/observability"
	"github.com/spec-kit/storefront-auth/internal/persistence"
	"github.com/spec-kit/storefront-auth/internal/repository"
	"github.com/spec-kit/storefront-auth/internal/service"
	"github.com/spec-kit/storefront-auth/internal/worker"
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

	if cfg.Auth.UsingDevSecret {
		logger.Warn("JWT_SECRET not set; using development signing secret", zap.String("env", cfg.App.Env))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	revocationRepo := repository.NewRevocationRepository(redis.Client, cfg.Redis.RevocationPrefix)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:       userRepo,
		RevocationRepo: revocationRepo,
		Tokens:         tokens,
		Events:         dispatcher,
		Logger:         logger,
	})

	if pg.PoolHandle() != nil {
		if err := authService.SeedAdmin(ctx); err != nil {
			logger.Fatal("failed to seed admin account", zap.Error(err))
		}
	} else {
		logger.Warn("postgres unavailable; admin account not seeded")
	}

	cookies := auth.CookieOptions{
		Secure:      cfg.Auth.SecureCookies,
		LegacyUntil: cfg.Auth.LegacyCookieUntil,
	}
	fullVerifier := auth.NewVerifier(tokens, cookies,
		auth.WithUserLookup(userRepo),
		auth.WithRevocations(revocationRepo),
		auth.WithLogger(logger),
	)
	edgeVerifier := auth.NewVerifier(tokens, cookies)

	metrics := observability.NewMetrics()
	gate := auth.NewGate(auth.GateConfig{
		Routes:   auth.DefaultRouteTable(),
		Verifier: edgeVerifier,
		Observer: metrics,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService, fullVerifier, cookies, logger),
		Pages:          handlers.NewPagesHandler(cfg.App.Name),
		AuthMiddleware: auth.NewAuthMiddleware(fullVerifier),
		Gate:           gate,
		StaticDir:      cfg.App.StaticDir,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
