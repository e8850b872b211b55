package service

import (
	"context"
	"fmt"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/logger"

	"github.com/rs/zerolog"
)

type changeIngestService struct {
	publisher ports.ChangePublisher
	notifier  ports.PayoutNotifier
	log       zerolog.Logger
}

// NewChangeIngestService creates the service behind the change hook.
// notifier may be nil.
func NewChangeIngestService(publisher ports.ChangePublisher, notifier ports.PayoutNotifier, log zerolog.Logger) ports.ChangeIngestService {
	return &changeIngestService{
		publisher: publisher,
		notifier:  notifier,
		log:       logger.Component(log, "change_ingest"),
	}
}

// Ingest validates a row change and fans it out to the owning merchant's
// channel. A payout entering paid or failed also notifies the merchant.
func (s *changeIngestService) Ingest(ctx context.Context, event domain.RawChangeEvent) error {
	if err := event.Validate(); err != nil {
		return apperror.Validation(err.Error())
	}

	merchantID, err := event.MerchantID()
	if err != nil {
		return apperror.Validation(err.Error())
	}

	var payout *domain.ChangeEvent[domain.Payout]
	switch event.Table {
	case domain.TableBalances:
		if _, err := domain.DecodeChange[domain.Balance](event); err != nil {
			return apperror.Validation(err.Error())
		}
	case domain.TablePayouts:
		decoded, err := domain.DecodeChange[domain.Payout](event)
		if err != nil {
			return apperror.Validation(err.Error())
		}
		payout = &decoded
	default:
		return apperror.Validation(fmt.Sprintf("unsupported table %q", event.Table))
	}

	if err := s.publisher.Publish(ctx, merchantID, event); err != nil {
		s.log.Error().Err(err).
			Str("table", event.Table).
			Str("merchant_id", merchantID.String()).
			Msg("failed to publish change")
		return apperror.ErrChannel(err)
	}

	s.log.Debug().
		Str("type", string(event.Type)).
		Str("table", event.Table).
		Str("merchant_id", merchantID.String()).
		Msg("change published")

	if payout != nil && s.notifier != nil && reachedFinalStatus(*payout) {
		if err := s.notifier.NotifyPayout(ctx, payout.New); err != nil {
			s.log.Warn().Err(err).Str("payout_id", payout.New.ID.String()).Msg("payout notification failed")
		}
	}
	return nil
}

// reachedFinalStatus reports whether the change moved a payout into paid or
// failed. An old row without a status counts as a change.
func reachedFinalStatus(ev domain.ChangeEvent[domain.Payout]) bool {
	if ev.Type == domain.EventDelete || ev.New == nil || !ev.New.IsTerminal() {
		return false
	}
	if ev.Old == nil || ev.Old.Status == "" {
		return true
	}
	return ev.Old.Status != ev.New.Status
}
