package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fezola/global-pay-connect-sub002/config"
	"github.com/fezola/global-pay-connect-sub002/internal/adapter/function"
	httpHandler "github.com/fezola/global-pay-connect-sub002/internal/adapter/http/handler"
	"github.com/fezola/global-pay-connect-sub002/internal/adapter/http/middleware"
	pgStorage "github.com/fezola/global-pay-connect-sub002/internal/adapter/storage/postgres"
	redisStorage "github.com/fezola/global-pay-connect-sub002/internal/adapter/storage/redis"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/internal/service"
	"github.com/fezola/global-pay-connect-sub002/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty, "dashboard-api")

	switch cfg.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("version", Version).
		Msg("Starting merchant dashboard API")

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("connecting to Redis: %w", err)
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Repositories
	balanceRepo := pgStorage.NewBalanceRepo(pool)
	payoutRepo := pgStorage.NewPayoutRepo(pool)
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	webhookRepo := pgStorage.NewWebhookRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)

	// Redis stores
	nonceStore := redisStorage.NewNonceStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)
	changes := redisStorage.NewChangeChannel(rdb, cfg.Realtime.ChannelPrefix, log)

	// Core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		return fmt.Errorf("initializing encryption service: %w", err)
	}
	sigSvc := service.NewHMACSignatureService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Platform functions
	functions := function.NewClient(cfg.Functions.BaseURL, cfg.Functions.Timeout, log)

	// Sync layer
	notifier := service.NewPayoutNotifier(
		payoutRepo,
		merchantRepo,
		webhookRepo,
		encSvc,
		sigSvc,
		&http.Client{Timeout: 10 * time.Second},
		log,
	)
	ingestSvc := service.NewChangeIngestService(changes, notifier, log)
	dashboardSvc := service.NewDashboardService(
		balanceRepo,
		payoutRepo,
		functions,
		changes,
		cfg.Payouts.DefaultCurrency,
		log,
	)
	webhookSettings := service.NewWebhookSettingsService(merchantRepo, encSvc, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		DashboardSvc: dashboardSvc,
		IngestSvc:    ingestSvc,
		TwoFactor:    functions,
		Webhooks:     webhookSettings,
		Reports:      service.NewReportingService(payoutRepo),
		TokenSvc:     tokenSvc,
		SigSvc:       sigSvc,
		NonceStore:   nonceStore,
		HookAuth: middleware.HookAuthConfig{
			Secret:   cfg.Hooks.Secret,
			MaxDrift: cfg.Hooks.MaxDrift,
			NonceTTL: cfg.Hooks.NonceTTL,
		},
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
		},
		AuditSvc:  auditSvc,
		Version:   Version,
		StartedAt: time.Now(),
		Logger:    log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	// Request contexts derive from baseCtx so shutdown can end open streams.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		_ = srv.Close()
	}

	log.Info().Msg("Server exited")
	return nil
}
