package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/conselho-tutelar/atendimento-service/internal/config"
	"github.com/conselho-tutelar/atendimento-service/internal/database"
	"github.com/conselho-tutelar/atendimento-service/internal/handlers"
	"github.com/conselho-tutelar/atendimento-service/internal/hub"
	"github.com/conselho-tutelar/atendimento-service/internal/metrics"
	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/conselho-tutelar/atendimento-service/internal/repository"
	"github.com/conselho-tutelar/atendimento-service/internal/routes"
	"github.com/conselho-tutelar/atendimento-service/internal/service"
	"github.com/conselho-tutelar/atendimento-service/pkg/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get connection pool: %w", err)
	}
	defer sqlDB.Close()

	if cfg.DBAutoMigrate || cfg.DBDriver == config.DriverSQLite {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
	}

	redisClient, err := redis.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	capabilities, err := models.LoadCapabilities(cfg.CapabilitiesFile)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	caseRepo := repository.NewCaseRepository(db)

	jwtService, err := service.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}
	sessions := service.NewRedisSessionStore(redisClient)
	authService := service.NewAuthService(userRepo, jwtService, sessions, logger)
	userService := service.NewUserService(userRepo, sessions, logger)
	caseService := service.NewCaseService(caseRepo, userRepo, service.SystemClock)
	statsService := service.NewStatsService(caseRepo, userRepo)

	m := metrics.New(prometheus.DefaultRegisterer)
	liveHub := hub.New(logger, m, cfg.AllowedOrigins)
	notifier := hub.NewStatsNotifier(liveHub, statsService, logger)

	cookies := handlers.NewCookieHelper(cfg.Cookie)
	h := routes.Handlers{
		Auth:  handlers.NewAuthHandler(authService, cookies, capabilities, m),
		User:  handlers.NewUserHandler(userService, notifier),
		Case:  handlers.NewCaseHandler(caseService, notifier, m),
		Stats: handlers.NewStatsHandler(statsService),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": sqlDB.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	routes.Setup(router, h, routes.Dependencies{
		Config:       cfg,
		Logger:       logger,
		AuthService:  authService,
		Capabilities: capabilities,
		Metrics:      m,
		Hub:          liveHub,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		liveHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("starting case service",
			zap.String("addr", srv.Addr),
			zap.String("driver", cfg.DBDriver),
			zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
