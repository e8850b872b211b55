package handler

import (
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/adapter/http/middleware"
	redisStore "github.com/fezola/global-pay-connect-sub002/internal/adapter/storage/redis"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	DashboardSvc   ports.DashboardService
	IngestSvc      ports.ChangeIngestService
	TwoFactor      ports.TwoFactorFunction
	Webhooks       ports.WebhookSettingsService
	Reports        ports.ReportingService
	TokenSvc       ports.TokenService
	SigSvc         ports.SignatureService
	NonceStore     ports.NonceStore
	HookAuth       middleware.HookAuthConfig
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Heartbeat      time.Duration
	Version        string
	StartedAt      time.Time
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/status", Status(deps.Version, deps.StartedAt))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- Platform hooks (HMAC) ---
	if deps.IngestSvc != nil {
		hmacAuth := middleware.HMACAuth(deps.HookAuth, deps.SigSvc, deps.NonceStore, deps.Logger)
		hookHandler := NewHookHandler(deps.IngestSvc)
		hooks := v1.Group("/hooks", hmacAuth)
		{
			hooks.POST("/changes", rl("hooks"), hookHandler.IngestChange)
		}
	}

	// --- Dashboard (JWT) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	balanceHandler := NewBalanceHandler(deps.DashboardSvc)
	payoutHandler := NewPayoutHandler(deps.DashboardSvc)
	streamHandler := NewStreamHandler(deps.DashboardSvc, deps.Heartbeat, deps.Logger)

	dash := v1.Group("", jwtAuth)
	{
		dash.GET("/balances", rl("dashboard"), balanceHandler.List)
		dash.GET("/payouts", rl("dashboard"), payoutHandler.List)
		dash.POST("/payouts", rl("payouts_create"), payoutHandler.Create)
		dash.GET("/stream", rl("stream"), streamHandler.Stream)
	}

	if deps.Reports != nil {
		reportHandler := NewReportHandler(deps.Reports)
		dash.GET("/payouts/summary", rl("dashboard"), reportHandler.PayoutSummary)
	}

	if deps.Webhooks != nil {
		merchantHandler := NewMerchantHandler(deps.Webhooks)
		merchant := v1.Group("/merchant", jwtAuth)
		{
			merchant.GET("/webhook", rl("dashboard"), merchantHandler.GetWebhook)
			merchant.PUT("/webhook", rl("security"), merchantHandler.UpdateWebhook)
		}
	}

	if deps.TwoFactor != nil {
		securityHandler := NewSecurityHandler(deps.TwoFactor)
		security := v1.Group("/security", jwtAuth)
		{
			security.POST("/2fa/setup", rl("security"), securityHandler.Setup2FA)
		}
	}

	return r
}
