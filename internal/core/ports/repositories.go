package ports

import (
	"context"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"

	"github.com/google/uuid"
)

// BalanceRepository reads and seeds merchant balance rows.
type BalanceRepository interface {
	// ListByMerchant returns the merchant's rows in storage order.
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Balance, error)
	// CreateDefaults inserts a zero row per currency, skipping currencies the
	// merchant already holds, and returns the merchant's rows afterwards.
	CreateDefaults(ctx context.Context, merchantID uuid.UUID, currencies []string) ([]domain.Balance, error)
}

// PayoutRepository reads merchant payouts. Payouts are written by the payout
// function, never by this service.
type PayoutRepository interface {
	// ListByMerchant returns the merchant's payouts newest first.
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Payout, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error)
	// Summarize aggregates payouts per currency. A nil since covers all time.
	Summarize(ctx context.Context, merchantID uuid.UUID, since *time.Time) ([]domain.PayoutSummary, error)
}

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	// UpdateWebhook sets the notification endpoint and its encrypted secret.
	// A nil url clears both.
	UpdateWebhook(ctx context.Context, id uuid.UUID, url *string, secretEnc string) error
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// WebhookRepository persists payout notification delivery logs.
type WebhookRepository interface {
	Create(ctx context.Context, log *domain.WebhookDeliveryLog) error
	Update(ctx context.Context, log *domain.WebhookDeliveryLog) error
	ListByPayoutID(ctx context.Context, payoutID uuid.UUID) ([]domain.WebhookDeliveryLog, error)
}
