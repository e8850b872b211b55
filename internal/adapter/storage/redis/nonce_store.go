package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const noncePrefix = "nonce"

// NonceStore remembers hook nonces for their replay window.
type NonceStore struct {
	client goredis.Cmdable
}

// NewNonceStore creates a new Redis-backed nonce store.
func NewNonceStore(client goredis.Cmdable) *NonceStore {
	return &NonceStore{client: client}
}

// CheckAndSet records nonce in scope for ttl. It returns false when the nonce
// was already recorded and has not expired.
func (s *NonceStore) CheckAndSet(ctx context.Context, scope string, nonce string, ttl time.Duration) (bool, error) {
	fresh, err := s.client.SetNX(ctx, nonceKey(scope, nonce), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis nonce check: %w", err)
	}
	return fresh, nil
}

func nonceKey(scope, nonce string) string {
	return noncePrefix + ":" + scope + ":" + nonce
}
