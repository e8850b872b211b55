package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/fezola/global-pay-connect-sub002/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	log.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("redis connected")

	return client, nil
}

const healthProbeKey = "health:probe"

// HealthCheck reports whether Redis accepts writes. Nonces, rate limit
// counters and the change channel all need a writable primary.
type HealthCheck struct {
	client goredis.Cmdable
}

// NewHealthCheck creates a Redis health checker.
func NewHealthCheck(client goredis.Cmdable) *HealthCheck {
	return &HealthCheck{client: client}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	if err := h.client.Set(ctx, healthProbeKey, time.Now().Unix(), 10*time.Second).Err(); err != nil {
		return fmt.Errorf("redis not writable: %w", err)
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "redis"
}
