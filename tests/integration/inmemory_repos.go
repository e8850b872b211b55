package integration

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- In-Memory Balance Repo ---

type inMemoryBalanceRepo struct {
	mu       sync.Mutex
	balances map[uuid.UUID][]domain.Balance
	seeds    int
}

func newInMemoryBalanceRepo() *inMemoryBalanceRepo {
	return &inMemoryBalanceRepo{balances: make(map[uuid.UUID][]domain.Balance)}
}

func (r *inMemoryBalanceRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Balance, len(r.balances[merchantID]))
	copy(out, r.balances[merchantID])
	return out, nil
}

func (r *inMemoryBalanceRepo) CreateDefaults(ctx context.Context, merchantID uuid.UUID, currencies []string) ([]domain.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeds++
	held := make(map[string]bool)
	for _, b := range r.balances[merchantID] {
		held[b.Currency] = true
	}
	for _, c := range currencies {
		if !held[c] {
			r.balances[merchantID] = append(r.balances[merchantID], domain.NewZeroBalance(merchantID, c, time.Now()))
		}
	}
	out := make([]domain.Balance, len(r.balances[merchantID]))
	copy(out, r.balances[merchantID])
	return out, nil
}

func (r *inMemoryBalanceRepo) seedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seeds
}

// --- In-Memory Payout Repo ---

type inMemoryPayoutRepo struct {
	mu      sync.Mutex
	payouts map[uuid.UUID]domain.Payout
}

func newInMemoryPayoutRepo() *inMemoryPayoutRepo {
	return &inMemoryPayoutRepo{payouts: make(map[uuid.UUID]domain.Payout)}
}

// put stores p as the payout function would.
func (r *inMemoryPayoutRepo) put(p domain.Payout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payouts[p.ID] = p
}

func (r *inMemoryPayoutRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Payout{}
	for _, p := range r.payouts {
		if p.MerchantID == merchantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *inMemoryPayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *inMemoryPayoutRepo) Summarize(ctx context.Context, merchantID uuid.UUID, since *time.Time) ([]domain.PayoutSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byCurrency := map[string]*domain.PayoutSummary{}
	for _, p := range r.payouts {
		if p.MerchantID != merchantID || (since != nil && p.CreatedAt.Before(*since)) {
			continue
		}
		s, ok := byCurrency[p.Currency]
		if !ok {
			s = &domain.PayoutSummary{Currency: p.Currency, PaidAmount: decimal.Zero, PaidFees: decimal.Zero}
			byCurrency[p.Currency] = s
		}
		s.Total++
		switch p.Status {
		case domain.PayoutStatusPending:
			s.Pending++
		case domain.PayoutStatusProcessing:
			s.Processing++
		case domain.PayoutStatusPaid:
			s.Paid++
			s.PaidAmount = s.PaidAmount.Add(p.Amount)
			s.PaidFees = s.PaidFees.Add(p.Fee)
		case domain.PayoutStatusFailed:
			s.Failed++
		}
	}
	out := make([]domain.PayoutSummary, 0, len(byCurrency))
	for _, s := range byCurrency {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) put(m *domain.Merchant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants[m.ID] = m
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (r *inMemoryMerchantRepo) UpdateWebhook(ctx context.Context, id uuid.UUID, url *string, secretEnc string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return domain.ErrMerchantNotFound
	}
	updated := *m
	updated.WebhookURL = url
	updated.WebhookSecretEnc = secretEnc
	updated.UpdatedAt = time.Now()
	r.merchants[id] = &updated
	return nil
}

// --- In-Memory Webhook Repo ---

type inMemoryWebhookRepo struct {
	mu   sync.Mutex
	logs map[uuid.UUID]domain.WebhookDeliveryLog
}

func newInMemoryWebhookRepo() *inMemoryWebhookRepo {
	return &inMemoryWebhookRepo{logs: make(map[uuid.UUID]domain.WebhookDeliveryLog)}
}

func (r *inMemoryWebhookRepo) Create(ctx context.Context, log *domain.WebhookDeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[log.ID] = *log
	return nil
}

func (r *inMemoryWebhookRepo) Update(ctx context.Context, log *domain.WebhookDeliveryLog) error {
	return r.Create(ctx, log)
}

func (r *inMemoryWebhookRepo) ListByPayoutID(ctx context.Context, payoutID uuid.UUID) ([]domain.WebhookDeliveryLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WebhookDeliveryLog
	for _, l := range r.logs {
		if l.PayoutID == payoutID {
			out = append(out, l)
		}
	}
	return out, nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *log)
	return nil
}

func (r *inMemoryAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}
