package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrMerchantNotFound is returned by writes that target no merchant row.
var ErrMerchantNotFound = errors.New("merchant not found")

// Merchant is the tenant owning balances and payouts.
type Merchant struct {
	ID               uuid.UUID `json:"id"`
	BusinessName     string    `json:"business_name"`
	WebhookURL       *string   `json:"webhook_url,omitempty"`
	WebhookSecretEnc string    `json:"-"` // Encrypted, never expose
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasWebhook returns true if the merchant can receive notifications.
func (m *Merchant) HasWebhook() bool {
	return m.WebhookURL != nil && *m.WebhookURL != "" && m.WebhookSecretEnc != ""
}
