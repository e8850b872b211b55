package service

import (
	"context"
	"slices"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReduceBalances folds a balance change into state.
// INSERT and UPDATE replace the row with the same id; INSERT appends an
// unseen id, UPDATE ignores it. Balances are never deleted here, so DELETE
// is ignored.
func ReduceBalances(state []domain.Balance, ev domain.ChangeEvent[domain.Balance]) ([]domain.Balance, ReduceResult) {
	if ev.Type == domain.EventDelete || ev.New == nil {
		return state, Ignored
	}
	row := *ev.New

	i := slices.IndexFunc(state, func(b domain.Balance) bool { return b.ID == row.ID })
	switch {
	case i >= 0:
		next := slices.Clone(state)
		next[i] = row
		return next, Applied
	case ev.Type == domain.EventInsert:
		next := make([]domain.Balance, 0, len(state)+1)
		next = append(next, state...)
		return append(next, row), Applied
	default:
		return state, Ignored
	}
}

// BalanceStore mirrors one merchant's balance rows.
// It is not safe for concurrent use.
type BalanceStore struct {
	recordStore[domain.Balance]
	repo ports.BalanceRepository
	log  zerolog.Logger
}

// NewBalanceStore creates an empty store. Call Reset to scope it to a merchant.
func NewBalanceStore(repo ports.BalanceRepository, log zerolog.Logger) *BalanceStore {
	return &BalanceStore{
		recordStore: newRecordStore(ReduceBalances),
		repo:        repo,
		log:         logger.Component(log, "balance_store"),
	}
}

// Reset empties the store and scopes it to merchantID. uuid.Nil means no
// merchant is signed in.
func (s *BalanceStore) Reset(merchantID uuid.UUID) {
	s.reset(merchantID)
}

// MerchantID returns the merchant the store is scoped to.
func (s *BalanceStore) MerchantID() uuid.UUID {
	return s.merchantID
}

// Items returns a copy of the current rows in storage order.
func (s *BalanceStore) Items() []domain.Balance {
	return s.snapshot()
}

// BeginLoad starts a load. Events applied from now until CommitLoad are
// replayed over the fetched rows.
func (s *BalanceStore) BeginLoad() LoadTicket {
	return s.beginLoad()
}

// Fetch reads the rows for t and seeds default zero balances when the
// merchant has none. It touches no store state and may run on any goroutine.
func (s *BalanceStore) Fetch(ctx context.Context, t LoadTicket) ([]domain.Balance, error) {
	if t.MerchantID == uuid.Nil {
		return nil, apperror.ErrUnauthenticated()
	}

	rows, err := s.repo.ListByMerchant(ctx, t.MerchantID)
	if err != nil {
		return nil, apperror.ErrFetch("balances", err)
	}
	if len(rows) > 0 {
		return rows, nil
	}

	rows, err = s.repo.CreateDefaults(ctx, t.MerchantID, domain.DefaultCurrencies)
	if err != nil {
		return nil, apperror.ErrFetch("balances", err)
	}
	s.log.Info().
		Str("merchant_id", t.MerchantID.String()).
		Strs("currencies", domain.DefaultCurrencies).
		Msg("seeded default balances")
	return rows, nil
}

// CommitLoad installs the result of Fetch. A failed fetch is logged and the
// current rows are kept. It returns false if t is stale.
func (s *BalanceStore) CommitLoad(t LoadTicket, rows []domain.Balance, err error) bool {
	if !s.commitLoad(t, rows, err) {
		s.log.Debug().Str("merchant_id", t.MerchantID.String()).Msg("discarding stale balance load")
		return false
	}
	if err != nil && !apperror.Is(err, apperror.CodeUnauth) {
		s.log.Error().Err(err).Str("merchant_id", t.MerchantID.String()).Msg("failed to load balances")
	}
	return true
}

// Load fetches and commits in one call.
func (s *BalanceStore) Load(ctx context.Context) error {
	t := s.BeginLoad()
	rows, err := s.Fetch(ctx, t)
	s.CommitLoad(t, rows, err)
	return err
}

// ApplyChangeEvent folds a pushed change into the store. The event must
// already be filtered to this store's merchant.
func (s *BalanceStore) ApplyChangeEvent(ev domain.ChangeEvent[domain.Balance]) ReduceResult {
	res := s.apply(ev)
	if res != Applied {
		s.log.Debug().
			Str("merchant_id", s.merchantID.String()).
			Str("event_type", string(ev.Type)).
			Stringer("result", res).
			Msg("balance event not applied")
	}
	return res
}
