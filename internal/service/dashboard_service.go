package service

import (
	"context"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// dashboardService serves request-scoped stores to the HTTP layer and opens
// live sessions for streaming clients.
type dashboardService struct {
	balances        ports.BalanceRepository
	payouts         ports.PayoutRepository
	fn              ports.PayoutFunction
	feed            ports.ChangeFeed
	defaultCurrency string
	log             zerolog.Logger
}

// NewDashboardService creates a new dashboard service. feed may be nil.
func NewDashboardService(
	balances ports.BalanceRepository,
	payouts ports.PayoutRepository,
	fn ports.PayoutFunction,
	feed ports.ChangeFeed,
	defaultCurrency string,
	log zerolog.Logger,
) ports.DashboardService {
	return &dashboardService{
		balances:        balances,
		payouts:         payouts,
		fn:              fn,
		feed:            feed,
		defaultCurrency: defaultCurrency,
		log:             log,
	}
}

// LoadBalances returns whatever the store holds after a load, with the load
// error if there was one.
func (s *dashboardService) LoadBalances(ctx context.Context, merchantID uuid.UUID) ([]domain.Balance, error) {
	store := NewBalanceStore(s.balances, s.log)
	store.Reset(merchantID)
	err := store.Load(ctx)
	return store.Items(), err
}

func (s *dashboardService) LoadPayouts(ctx context.Context, merchantID uuid.UUID) ([]domain.Payout, error) {
	store := NewPayoutStore(s.payouts, nil, s.defaultCurrency, s.log)
	store.Reset(merchantID)
	err := store.Load(ctx)
	return store.Items(), err
}

func (s *dashboardService) CreatePayout(ctx context.Context, merchantID uuid.UUID, bearer string, req domain.CreatePayoutRequest) (*ports.PayoutCreation, error) {
	store := NewPayoutStore(s.payouts, s.fn, s.defaultCurrency, s.log)
	store.Reset(merchantID)
	return store.Create(ctx, bearer, req)
}

// OpenStream runs a session for merchantID until ctx ends.
func (s *dashboardService) OpenStream(ctx context.Context, merchantID uuid.UUID) (<-chan ports.SessionUpdate, error) {
	sess := NewSession(SessionDeps{
		Balances: s.balances,
		Payouts:  s.payouts,
		Feed:     s.feed,
		Log:      s.log.With().Str("merchant_id", merchantID.String()).Logger(),
	})
	go func() {
		if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("session loop stopped")
		}
	}()
	if err := sess.SwitchMerchant(ctx, merchantID); err != nil {
		return nil, err
	}
	return sess.Updates(), nil
}
