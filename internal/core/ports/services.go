package ports

import (
	"context"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
	BuildCanonicalString(method, path string, timestamp int64, nonce string, body string) string
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(merchantID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	MerchantID uuid.UUID
}

// NonceStore manages nonce uniqueness for replay attack prevention.
type NonceStore interface {
	// CheckAndSet atomically checks if nonce exists, sets it if not.
	// Returns true if nonce is new (valid), false if already used.
	CheckAndSet(ctx context.Context, scope string, nonce string, ttl time.Duration) (bool, error)
}

// --- Remote functions ---

// PayoutFunction is the platform function that creates payouts. It owns fee
// calculation, balance checks and the transfer itself.
type PayoutFunction interface {
	CreatePayout(ctx context.Context, bearer string, req domain.CreatePayoutRequest) (*domain.CreatePayoutResult, error)
}

// TwoFactorFunction is the platform function that starts 2FA enrollment.
type TwoFactorFunction interface {
	Setup(ctx context.Context, bearer string) (*TwoFactorSetup, error)
}

// TwoFactorSetup is the enrollment material returned by the 2FA function.
type TwoFactorSetup struct {
	Success     bool     `json:"success"`
	Secret      string   `json:"secret"`
	QRCodeURL   string   `json:"qr_code_url"`
	BackupCodes []string `json:"backup_codes"`
}

// --- Change channel ---

// ChangeFeed opens merchant-scoped subscriptions on the realtime channel.
type ChangeFeed interface {
	// Subscribe blocks until the channel handshake completes.
	Subscribe(ctx context.Context, filter domain.ChangeFilter) (Subscription, error)
}

// Subscription is one open channel. Events is closed after Close or when the
// channel drops.
type Subscription interface {
	Events() <-chan domain.RawChangeEvent
	Close() error
}

// ChangePublisher publishes row changes to the realtime channel of the owning
// merchant.
type ChangePublisher interface {
	Publish(ctx context.Context, merchantID uuid.UUID, event domain.RawChangeEvent) error
}

// --- Service Ports (Business Logic) ---

// DashboardService is what the dashboard API needs from the sync layer.
type DashboardService interface {
	LoadBalances(ctx context.Context, merchantID uuid.UUID) ([]domain.Balance, error)
	LoadPayouts(ctx context.Context, merchantID uuid.UUID) ([]domain.Payout, error)
	CreatePayout(ctx context.Context, merchantID uuid.UUID, bearer string, req domain.CreatePayoutRequest) (*PayoutCreation, error)
	// OpenStream starts a live session for the merchant. It ends when ctx is
	// cancelled.
	OpenStream(ctx context.Context, merchantID uuid.UUID) (<-chan SessionUpdate, error)
}

// PayoutCreation is the outcome of a successful payout request.
type PayoutCreation struct {
	Message string
	Payout  *domain.Payout
	// Payouts is the list re-read after the function returned.
	Payouts []domain.Payout
	// RefreshErr is set when the re-read failed; Payouts is then stale.
	RefreshErr error
}

// UpdateKind says which store a session update comes from.
type UpdateKind string

const (
	UpdateBalances UpdateKind = "balances"
	UpdatePayouts  UpdateKind = "payouts"
	UpdateStatus   UpdateKind = "status"
)

// SessionUpdate is a snapshot of a session's stores after a change. Every
// snapshot is complete, so a consumer that skips some loses nothing.
type SessionUpdate struct {
	Kind       UpdateKind
	MerchantID uuid.UUID
	Balances   []domain.Balance
	Payouts    []domain.Payout
	// BalancesErr and PayoutsErr hold the last failed load of each store
	// until a later load succeeds.
	BalancesErr error
	PayoutsErr  error
	// ChannelErr is set once a change channel failed; the session is then
	// fetch-only for that table until the merchant changes.
	ChannelErr error
}

// ChangeIngestService accepts row changes posted by the platform.
type ChangeIngestService interface {
	Ingest(ctx context.Context, event domain.RawChangeEvent) error
}

// PayoutNotifier tells merchants about payouts that reached a final status.
type PayoutNotifier interface {
	NotifyPayout(ctx context.Context, payout *domain.Payout) error
}

// ReportingService aggregates a merchant's payout history.
type ReportingService interface {
	// PayoutSummary reports per-currency payout totals for period, one of
	// day, week, month or all.
	PayoutSummary(ctx context.Context, merchantID uuid.UUID, period string) (*PayoutReport, error)
}

// PayoutReport is a per-currency payout summary over a period.
type PayoutReport struct {
	Period     string
	Since      *time.Time
	Currencies []domain.PayoutSummary
}

// WebhookSettingsService manages where a merchant's payout notifications go.
type WebhookSettingsService interface {
	GetWebhook(ctx context.Context, merchantID uuid.UUID) (*WebhookSettings, error)
	// UpdateWebhook points notifications at url and issues a new signing
	// secret. A nil or empty url turns notifications off.
	UpdateWebhook(ctx context.Context, merchantID uuid.UUID, url *string) (*WebhookSettings, error)
}

// WebhookSettings is a merchant's notification endpoint.
type WebhookSettings struct {
	URL        *string
	Configured bool
	// Secret is set only when a new one was issued.
	Secret string
}

// HealthChecker probes one backing dependency for the health endpoint.
type HealthChecker interface {
	// Ping returns nil when the dependency is usable.
	Ping(ctx context.Context) error
	Name() string
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
