package service

import (
	"context"
	"errors"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionClosed is returned when talking to a session whose loop has exited.
var ErrSessionClosed = errors.New("session closed")

// SessionDeps are the collaborators of a Session. Feed may be nil, in which
// case the session only fetches.
type SessionDeps struct {
	Balances ports.BalanceRepository
	Payouts  ports.PayoutRepository
	Feed     ports.ChangeFeed
	Log      zerolog.Logger
}

// Session owns the balance and payout stores of the signed-in merchant and
// their change subscriptions. A single goroutine (Run) is the only writer of
// store state; fetches and channel handshakes run elsewhere and post their
// results back to it.
type Session struct {
	feed     ports.ChangeFeed
	log      zerolog.Logger
	balances *BalanceStore
	payouts  *PayoutStore

	switches chan uuid.UUID
	results  chan func()
	updates  chan ports.SessionUpdate
	done     chan struct{}

	// Owned by the loop.
	gen       uint64
	merchant  uuid.UUID
	balSub    ports.Subscription
	paySub    ports.Subscription
	balEvents <-chan domain.RawChangeEvent
	payEvents <-chan domain.RawChangeEvent
	balErr    error
	payErr    error
	chanErr   error
}

// NewSession creates a signed-out session. Start it with Run.
func NewSession(deps SessionDeps) *Session {
	return &Session{
		feed:     deps.Feed,
		log:      logger.Component(deps.Log, "session"),
		balances: NewBalanceStore(deps.Balances, deps.Log),
		payouts:  NewPayoutStore(deps.Payouts, nil, "", deps.Log),
		switches: make(chan uuid.UUID),
		results:  make(chan func()),
		updates:  make(chan ports.SessionUpdate, 1),
		done:     make(chan struct{}),
	}
}

// Updates delivers store snapshots. Only the latest undelivered snapshot is
// kept. The channel is closed when Run returns.
func (s *Session) Updates() <-chan ports.SessionUpdate {
	return s.updates
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// SwitchMerchant scopes the session to merchantID; uuid.Nil signs out.
func (s *Session) SwitchMerchant(ctx context.Context, merchantID uuid.UUID) error {
	select {
	case s.switches <- merchantID:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run is the session's event loop. It returns when ctx is cancelled, after
// releasing every subscription.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.updates)
	defer close(s.done)
	defer s.unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case id := <-s.switches:
			s.switchTo(ctx, id)

		case apply := <-s.results:
			apply()

		case raw, ok := <-s.balEvents:
			if !ok {
				s.channelLost(domain.TableBalances)
				continue
			}
			s.onBalanceEvent(raw)

		case raw, ok := <-s.payEvents:
			if !ok {
				s.channelLost(domain.TablePayouts)
				continue
			}
			s.onPayoutEvent(raw)
		}
	}
}

// post hands a continuation to the loop. It reports false if the loop is
// gone, in which case fn never runs.
func (s *Session) post(fn func()) bool {
	select {
	case s.results <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) switchTo(ctx context.Context, id uuid.UUID) {
	s.gen++
	s.unsubscribe()
	s.merchant = id
	s.balErr, s.payErr, s.chanErr = nil, nil, nil
	s.balances.Reset(id)
	s.payouts.Reset(id)
	s.emit(ports.UpdateBalances)

	if id == uuid.Nil {
		s.log.Debug().Msg("signed out")
		return
	}
	s.log.Info().Str("merchant_id", id.String()).Msg("session scoped to merchant")

	if s.feed == nil {
		s.loadBalances(ctx)
		s.loadPayouts(ctx)
		return
	}
	// Each table loads once its channel is up so no change falls between the
	// read and the subscription.
	s.subscribe(ctx, domain.TableBalances)
	s.subscribe(ctx, domain.TablePayouts)
}

func (s *Session) subscribe(ctx context.Context, table string) {
	gen := s.gen
	filter := domain.ChangeFilter{Table: table, MerchantID: s.merchant}

	go func() {
		sub, err := s.feed.Subscribe(ctx, filter)
		posted := s.post(func() {
			if gen != s.gen {
				if sub != nil {
					_ = sub.Close()
				}
				return
			}
			if err != nil {
				s.log.Warn().Err(err).
					Str("merchant_id", filter.MerchantID.String()).
					Str("table", table).
					Msg("realtime channel unavailable, continuing fetch-only")
				s.chanErr = apperror.ErrChannel(err)
				s.emit(ports.UpdateStatus)
			} else {
				switch table {
				case domain.TableBalances:
					s.balSub, s.balEvents = sub, sub.Events()
				case domain.TablePayouts:
					s.paySub, s.payEvents = sub, sub.Events()
				}
			}
			if table == domain.TableBalances {
				s.loadBalances(ctx)
			} else {
				s.loadPayouts(ctx)
			}
		})
		if !posted && sub != nil {
			_ = sub.Close()
		}
	}()
}

func (s *Session) loadBalances(ctx context.Context) {
	t := s.balances.BeginLoad()
	go func() {
		rows, err := s.balances.Fetch(ctx, t)
		s.post(func() {
			if !s.balances.CommitLoad(t, rows, err) {
				return
			}
			s.balErr = err
			s.emit(ports.UpdateBalances)
		})
	}()
}

func (s *Session) loadPayouts(ctx context.Context) {
	t := s.payouts.BeginLoad()
	go func() {
		rows, err := s.payouts.Fetch(ctx, t)
		s.post(func() {
			if !s.payouts.CommitLoad(t, rows, err) {
				return
			}
			s.payErr = err
			s.emit(ports.UpdatePayouts)
		})
	}()
}

func (s *Session) onBalanceEvent(raw domain.RawChangeEvent) {
	filter := domain.ChangeFilter{Table: domain.TableBalances, MerchantID: s.merchant}
	if !filter.Matches(raw) {
		s.log.Warn().Str("table", raw.Table).Msg("dropping change event outside session scope")
		return
	}
	ev, err := domain.DecodeChange[domain.Balance](raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping undecodable balance event")
		return
	}
	if s.balances.ApplyChangeEvent(ev) == Applied {
		s.emit(ports.UpdateBalances)
	}
}

func (s *Session) onPayoutEvent(raw domain.RawChangeEvent) {
	filter := domain.ChangeFilter{Table: domain.TablePayouts, MerchantID: s.merchant}
	if !filter.Matches(raw) {
		s.log.Warn().Str("table", raw.Table).Msg("dropping change event outside session scope")
		return
	}
	ev, err := domain.DecodeChange[domain.Payout](raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping undecodable payout event")
		return
	}
	if s.payouts.ApplyChangeEvent(ev) == Applied {
		s.emit(ports.UpdatePayouts)
	}
}

// channelLost handles a subscription whose event stream ended. There is no
// reconnect; the data is reconciled by the next load.
func (s *Session) channelLost(table string) {
	switch table {
	case domain.TableBalances:
		s.balSub, s.balEvents = closeSub(s.balSub)
	case domain.TablePayouts:
		s.paySub, s.payEvents = closeSub(s.paySub)
	}
	s.log.Warn().Str("merchant_id", s.merchant.String()).Str("table", table).Msg("realtime channel closed")
	s.chanErr = apperror.ErrChannel(errors.New(table + " channel closed"))
	s.emit(ports.UpdateStatus)
}

func (s *Session) unsubscribe() {
	s.balSub, s.balEvents = closeSub(s.balSub)
	s.paySub, s.payEvents = closeSub(s.paySub)
}

func closeSub(sub ports.Subscription) (ports.Subscription, <-chan domain.RawChangeEvent) {
	if sub != nil {
		_ = sub.Close()
	}
	return nil, nil
}

// emit publishes a snapshot of both stores, replacing any snapshot the
// consumer has not taken yet.
func (s *Session) emit(kind ports.UpdateKind) {
	u := ports.SessionUpdate{
		Kind:        kind,
		MerchantID:  s.merchant,
		Balances:    s.balances.Items(),
		Payouts:     s.payouts.Items(),
		BalancesErr: s.balErr,
		PayoutsErr:  s.payErr,
		ChannelErr:  s.chanErr,
	}
	for {
		select {
		case s.updates <- u:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
