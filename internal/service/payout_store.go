package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ReducePayouts folds a payout change into state, which is kept newest first.
// INSERT prepends an unseen id and replaces a known one in place. UPDATE
// replaces in place and ignores unseen ids. DELETE removes. An UPDATE that
// would move a payout's status backwards is rejected.
func ReducePayouts(state []domain.Payout, ev domain.ChangeEvent[domain.Payout]) ([]domain.Payout, ReduceResult) {
	var id uuid.UUID
	switch {
	case ev.Type == domain.EventDelete && ev.Old != nil:
		id = ev.Old.ID
	case ev.Type != domain.EventDelete && ev.New != nil:
		id = ev.New.ID
	default:
		return state, Ignored
	}

	i := slices.IndexFunc(state, func(p domain.Payout) bool { return p.ID == id })

	switch ev.Type {
	case domain.EventDelete:
		if i < 0 {
			return state, Ignored
		}
		return slices.Delete(slices.Clone(state), i, i+1), Applied

	case domain.EventInsert:
		if i >= 0 {
			next := slices.Clone(state)
			next[i] = *ev.New
			return next, Applied
		}
		next := make([]domain.Payout, 0, len(state)+1)
		next = append(next, *ev.New)
		return append(next, state...), Applied

	case domain.EventUpdate:
		if i < 0 {
			return state, Ignored
		}
		if !state[i].Status.CanTransitionTo(ev.New.Status) {
			return state, Rejected
		}
		next := slices.Clone(state)
		next[i] = *ev.New
		return next, Applied
	}
	return state, Ignored
}

// PayoutStore mirrors one merchant's payouts, newest first.
// It is not safe for concurrent use.
type PayoutStore struct {
	recordStore[domain.Payout]
	repo            ports.PayoutRepository
	fn              ports.PayoutFunction
	defaultCurrency string
	log             zerolog.Logger
}

// NewPayoutStore creates an empty store. fn may be nil for read-only use.
func NewPayoutStore(repo ports.PayoutRepository, fn ports.PayoutFunction, defaultCurrency string, log zerolog.Logger) *PayoutStore {
	return &PayoutStore{
		recordStore:     newRecordStore(ReducePayouts),
		repo:            repo,
		fn:              fn,
		defaultCurrency: defaultCurrency,
		log:             logger.Component(log, "payout_store"),
	}
}

// Reset empties the store and scopes it to merchantID.
func (s *PayoutStore) Reset(merchantID uuid.UUID) {
	s.reset(merchantID)
}

// MerchantID returns the merchant the store is scoped to.
func (s *PayoutStore) MerchantID() uuid.UUID {
	return s.merchantID
}

// Items returns a copy of the current payouts, newest first.
func (s *PayoutStore) Items() []domain.Payout {
	return s.snapshot()
}

// BeginLoad starts a load.
func (s *PayoutStore) BeginLoad() LoadTicket {
	return s.beginLoad()
}

// Fetch reads the payouts for t. It touches no store state.
func (s *PayoutStore) Fetch(ctx context.Context, t LoadTicket) ([]domain.Payout, error) {
	if t.MerchantID == uuid.Nil {
		return nil, apperror.ErrUnauthenticated()
	}
	rows, err := s.repo.ListByMerchant(ctx, t.MerchantID)
	if err != nil {
		return nil, apperror.ErrFetch("payouts", err)
	}
	return rows, nil
}

// CommitLoad installs the result of Fetch. It returns false if t is stale.
func (s *PayoutStore) CommitLoad(t LoadTicket, rows []domain.Payout, err error) bool {
	if !s.commitLoad(t, rows, err) {
		s.log.Debug().Str("merchant_id", t.MerchantID.String()).Msg("discarding stale payout load")
		return false
	}
	if err != nil && !apperror.Is(err, apperror.CodeUnauth) {
		s.log.Error().Err(err).Str("merchant_id", t.MerchantID.String()).Msg("failed to load payouts")
	}
	return true
}

// Load fetches and commits in one call. It does not retry.
func (s *PayoutStore) Load(ctx context.Context) error {
	t := s.BeginLoad()
	rows, err := s.Fetch(ctx, t)
	s.CommitLoad(t, rows, err)
	return err
}

// ApplyChangeEvent folds a pushed change into the store.
func (s *PayoutStore) ApplyChangeEvent(ev domain.ChangeEvent[domain.Payout]) ReduceResult {
	res := s.apply(ev)
	switch res {
	case Rejected:
		s.log.Debug().
			Str("merchant_id", s.merchantID.String()).
			Str("payout_id", ev.New.ID.String()).
			Str("status", string(ev.New.Status)).
			Msg("dropping payout update that moves status backwards")
	case Ignored:
		s.log.Debug().
			Str("merchant_id", s.merchantID.String()).
			Str("event_type", string(ev.Type)).
			Msg("payout event for unknown id")
	}
	return res
}

// NormalizePayoutRequest checks the request shape and fills the default
// currency. Fees, balance sufficiency and limits are the payout function's
// business.
func NormalizePayoutRequest(req domain.CreatePayoutRequest, defaultCurrency string) (domain.CreatePayoutRequest, error) {
	req.Amount = strings.TrimSpace(req.Amount)
	req.DestinationAddress = strings.TrimSpace(req.DestinationAddress)
	req.DestinationID = strings.TrimSpace(req.DestinationID)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return req, apperror.Validation("amount must be a positive number")
	}
	switch {
	case req.DestinationAddress == "" && req.DestinationID == "":
		return req, apperror.Validation("a destination is required")
	case req.DestinationAddress != "" && req.DestinationID != "":
		return req, apperror.Validation("provide either destination_address or destination_id, not both")
	}
	if req.Currency == "" {
		req.Currency = defaultCurrency
	}
	return req, nil
}

// Create asks the payout function to create a payout and waits for it. On
// success the list is re-read from storage instead of inserting the returned
// row, since the function assigns id, fee and status. The function's error
// message is returned as a WriteError; nothing is retried.
func (s *PayoutStore) Create(ctx context.Context, bearer string, req domain.CreatePayoutRequest) (*ports.PayoutCreation, error) {
	if s.merchantID == uuid.Nil {
		return nil, apperror.ErrUnauthenticated()
	}
	req, err := NormalizePayoutRequest(req, s.defaultCurrency)
	if err != nil {
		return nil, err
	}
	if s.fn == nil {
		return nil, apperror.InternalError(errors.New("payout function not configured"))
	}

	log := s.log.With().Str("merchant_id", s.merchantID.String()).Logger()

	result, err := s.fn.CreatePayout(ctx, bearer, req)
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.ErrWrite("", err)
		}
		log.Error().Err(err).Str("amount", req.Amount).Str("currency", req.Currency).Msg("payout creation failed")
		return nil, appErr
	}

	log.Info().Str("amount", req.Amount).Str("currency", req.Currency).Msg("payout created")

	out := &ports.PayoutCreation{Message: result.Message, Payout: result.Payout}
	if err := s.Load(ctx); err != nil {
		out.RefreshErr = err
	}
	out.Payouts = s.Items()
	return out, nil
}
