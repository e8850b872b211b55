package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports/mocks"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestChangeIngest_PublishesBalanceChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := mocks.NewMockChangePublisher(ctrl)
	notifier := mocks.NewMockPayoutNotifier(ctrl)
	svc := NewChangeIngestService(publisher, notifier, newTestLogger())

	merchantID := uuid.New()
	ev := rawOf(t, domain.EventUpdate, domain.TableBalances, testBalance(merchantID, "USDC", "12.5"))

	publisher.EXPECT().Publish(gomock.Any(), merchantID, ev).Return(nil)

	assert.NoError(t, svc.Ingest(context.Background(), ev))
}

func TestChangeIngest_RejectsMalformedEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := mocks.NewMockChangePublisher(ctrl)
	svc := NewChangeIngestService(publisher, nil, newTestLogger())

	merchantID := uuid.New()
	noMerchant := testBalance(uuid.Nil, "USDC", "1")

	tests := []struct {
		name  string
		event domain.RawChangeEvent
	}{
		{"unknown type", domain.RawChangeEvent{Type: "TRUNCATE", Table: domain.TableBalances, Record: []byte(`{}`)}},
		{"missing record", domain.RawChangeEvent{Type: domain.EventInsert, Table: domain.TableBalances}},
		{"missing merchant", rawOf(t, domain.EventInsert, domain.TableBalances, noMerchant)},
		{"unsupported table", rawOf(t, domain.EventInsert, "merchants", map[string]any{"merchant_id": merchantID})},
		{"undecodable row", domain.RawChangeEvent{
			Type:   domain.EventInsert,
			Table:  domain.TablePayouts,
			Record: []byte(`{"merchant_id":"` + merchantID.String() + `","amount":"not-a-number"}`),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Ingest(context.Background(), tt.event)
			assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestChangeIngest_PublishFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := mocks.NewMockChangePublisher(ctrl)
	notifier := mocks.NewMockPayoutNotifier(ctrl)
	svc := NewChangeIngestService(publisher, notifier, newTestLogger())

	p := testPayout(uuid.New(), domain.PayoutStatusPaid, time.Now())
	publisher.EXPECT().Publish(gomock.Any(), p.MerchantID, gomock.Any()).Return(errors.New("redis down"))

	err := svc.Ingest(context.Background(), rawOf(t, domain.EventUpdate, domain.TablePayouts, p))
	assert.True(t, apperror.Is(err, apperror.CodeChannel))
}

func TestChangeIngest_NotifiesOnFinalStatus(t *testing.T) {
	merchantID := uuid.New()
	now := time.Now()
	processing := testPayout(merchantID, domain.PayoutStatusProcessing, now)

	tests := []struct {
		name   string
		event  func(t *testing.T) domain.RawChangeEvent
		notify bool
	}{
		{
			name: "processing to paid",
			event: func(t *testing.T) domain.RawChangeEvent {
				ev := rawOf(t, domain.EventUpdate, domain.TablePayouts, withStatus(processing, domain.PayoutStatusPaid))
				ev.OldRecord = rawOf(t, domain.EventUpdate, domain.TablePayouts, processing).Record
				return ev
			},
			notify: true,
		},
		{
			name: "no old record",
			event: func(t *testing.T) domain.RawChangeEvent {
				return rawOf(t, domain.EventUpdate, domain.TablePayouts, withStatus(processing, domain.PayoutStatusFailed))
			},
			notify: true,
		},
		{
			name: "already paid",
			event: func(t *testing.T) domain.RawChangeEvent {
				paid := withStatus(processing, domain.PayoutStatusPaid)
				ev := rawOf(t, domain.EventUpdate, domain.TablePayouts, paid)
				ev.OldRecord = ev.Record
				return ev
			},
			notify: false,
		},
		{
			name: "still processing",
			event: func(t *testing.T) domain.RawChangeEvent {
				return rawOf(t, domain.EventUpdate, domain.TablePayouts, processing)
			},
			notify: false,
		},
		{
			name: "delete",
			event: func(t *testing.T) domain.RawChangeEvent {
				return rawOf(t, domain.EventDelete, domain.TablePayouts, withStatus(processing, domain.PayoutStatusPaid))
			},
			notify: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			publisher := mocks.NewMockChangePublisher(ctrl)
			notifier := mocks.NewMockPayoutNotifier(ctrl)
			svc := NewChangeIngestService(publisher, notifier, newTestLogger())

			publisher.EXPECT().Publish(gomock.Any(), merchantID, gomock.Any()).Return(nil)
			if tt.notify {
				notifier.EXPECT().NotifyPayout(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, p *domain.Payout) error {
						assert.Equal(t, processing.ID, p.ID)
						assert.True(t, p.IsTerminal())
						return nil
					})
			}

			assert.NoError(t, svc.Ingest(context.Background(), tt.event(t)))
		})
	}
}

func TestChangeIngest_NotifierErrorDoesNotFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := mocks.NewMockChangePublisher(ctrl)
	notifier := mocks.NewMockPayoutNotifier(ctrl)
	svc := NewChangeIngestService(publisher, notifier, newTestLogger())

	p := testPayout(uuid.New(), domain.PayoutStatusFailed, time.Now())
	publisher.EXPECT().Publish(gomock.Any(), p.MerchantID, gomock.Any()).Return(nil)
	notifier.EXPECT().NotifyPayout(gomock.Any(), gomock.Any()).Return(errors.New("merchant lookup failed"))

	assert.NoError(t, svc.Ingest(context.Background(), rawOf(t, domain.EventInsert, domain.TablePayouts, p)))
}
