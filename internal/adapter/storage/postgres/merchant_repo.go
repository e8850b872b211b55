package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// GetByID fetches a merchant by its UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT id, business_name, webhook_url, COALESCE(webhook_secret_enc, ''), two_factor_enabled, created_at, updated_at
		FROM merchants WHERE id = $1`

	m := &domain.Merchant{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.BusinessName, &m.WebhookURL, &m.WebhookSecretEnc,
		&m.TwoFactorEnabled, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merchant by id: %w", err)
	}
	return m, nil
}

// UpdateWebhook replaces the merchant's webhook endpoint and secret.
func (r *MerchantRepo) UpdateWebhook(ctx context.Context, id uuid.UUID, url *string, secretEnc string) error {
	query := `UPDATE merchants SET webhook_url = $2, webhook_secret_enc = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, url, secretEnc)
	if err != nil {
		return fmt.Errorf("update merchant webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMerchantNotFound
	}
	return nil
}
