package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// webhookRetryIntervals are the waits between delivery attempts.
var webhookRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// Notification event types
const (
	EventPayoutPaid   = "payout.paid"
	EventPayoutFailed = "payout.failed"
)

// PayoutNotification is the JSON body posted to the merchant's webhook_url.
type PayoutNotification struct {
	EventType string                 `json:"event_type"`
	Data      PayoutNotificationData `json:"data"`
	Signature string                 `json:"signature"`
}

// PayoutNotificationData is the signed part of a notification.
type PayoutNotificationData struct {
	PayoutID      string `json:"payout_id"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	Fee           string `json:"fee"`
	Currency      string `json:"currency"`
	Destination   string `json:"destination"`
	TxHash        string `json:"tx_hash,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// payoutNotifier implements ports.PayoutNotifier.
type payoutNotifier struct {
	payoutRepo     ports.PayoutRepository
	merchantRepo   ports.MerchantRepository
	webhookRepo    ports.WebhookRepository
	encSvc         ports.EncryptionService
	sigSvc         ports.SignatureService
	httpClient     HTTPClient
	retryIntervals []time.Duration
	log            zerolog.Logger
}

// NewPayoutNotifier creates a new notifier. webhookRepo may be nil, in which
// case deliveries are only logged.
func NewPayoutNotifier(
	payoutRepo ports.PayoutRepository,
	merchantRepo ports.MerchantRepository,
	webhookRepo ports.WebhookRepository,
	encSvc ports.EncryptionService,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	log zerolog.Logger,
) ports.PayoutNotifier {
	return &payoutNotifier{
		payoutRepo:     payoutRepo,
		merchantRepo:   merchantRepo,
		webhookRepo:    webhookRepo,
		encSvc:         encSvc,
		sigSvc:         sigSvc,
		httpClient:     httpClient,
		retryIntervals: webhookRetryIntervals,
		log:            logger.Component(log, "payout_notifier"),
	}
}

// NotifyPayout signs a notification for a payout in a final status and
// delivers it in the background. Payouts still in flight are skipped. The
// notification is built from the stored row; a pushed row that storage does
// not confirm is not notified.
func (s *payoutNotifier) NotifyPayout(ctx context.Context, pushed *domain.Payout) error {
	var eventType string
	switch pushed.Status {
	case domain.PayoutStatusPaid:
		eventType = EventPayoutPaid
	case domain.PayoutStatusFailed:
		eventType = EventPayoutFailed
	default:
		return nil
	}

	payout, err := s.payoutRepo.GetByID(ctx, pushed.ID)
	if err != nil {
		s.log.Error().Err(err).Str("payout_id", pushed.ID.String()).Msg("failed to re-read payout")
		return apperror.ErrFetch("payout", err)
	}
	if payout == nil || payout.MerchantID != pushed.MerchantID || payout.Status != pushed.Status {
		s.log.Warn().Str("payout_id", pushed.ID.String()).
			Str("pushed_status", string(pushed.Status)).
			Msg("stored payout does not match change, skipping notification")
		return nil
	}

	merchant, err := s.merchantRepo.GetByID(ctx, payout.MerchantID)
	if err != nil {
		s.log.Error().Err(err).Str("merchant_id", payout.MerchantID.String()).Msg("failed to fetch merchant")
		return apperror.ErrFetch("merchant", err)
	}
	if merchant == nil || !merchant.HasWebhook() {
		s.log.Debug().Str("merchant_id", payout.MerchantID.String()).Msg("no webhook configured, skipping")
		return nil
	}

	secret, err := s.encSvc.Decrypt(merchant.WebhookSecretEnc)
	if err != nil {
		s.log.Error().Err(err).Str("merchant_id", merchant.ID.String()).Msg("failed to decrypt webhook secret")
		return apperror.ErrEncryptionFailure(err)
	}

	data := PayoutNotificationData{
		PayoutID:    payout.ID.String(),
		Status:      string(payout.Status),
		Amount:      payout.Amount.String(),
		Fee:         payout.Fee.String(),
		Currency:    payout.Currency,
		Destination: payout.Destination,
		Timestamp:   time.Now().Unix(),
	}
	if payout.TxHash != nil {
		data.TxHash = *payout.TxHash
	}
	if payout.FailureReason != nil {
		data.FailureReason = *payout.FailureReason
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return apperror.InternalError(err)
	}
	body, err := json.Marshal(PayoutNotification{
		EventType: eventType,
		Data:      data,
		Signature: s.sigSvc.Sign(secret, string(dataBytes)),
	})
	if err != nil {
		return apperror.InternalError(err)
	}

	now := time.Now()
	entry := &domain.WebhookDeliveryLog{
		ID:         uuid.New(),
		PayoutID:   payout.ID,
		MerchantID: merchant.ID,
		WebhookURL: *merchant.WebhookURL,
		Payload:    string(body),
		Status:     domain.WebhookStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	bg := context.WithoutCancel(ctx)
	if s.webhookRepo != nil {
		if err := s.webhookRepo.Create(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("payout_id", payout.ID.String()).Msg("failed to record webhook delivery")
		}
	}

	go s.deliverWithRetries(bg, entry)
	return nil
}

// deliverWithRetries posts the notification until a 2xx or the schedule runs out.
func (s *payoutNotifier) deliverWithRetries(ctx context.Context, entry *domain.WebhookDeliveryLog) {
	log := s.log.With().Str("payout_id", entry.PayoutID.String()).Logger()

	for attempt := 0; attempt <= len(s.retryIntervals); attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.retryIntervals[attempt-1]):
			case <-ctx.Done():
				return
			}
		}
		entry.Attempt = attempt + 1

		status, err := s.post(ctx, entry)
		if status != 0 {
			entry.HTTPStatus = &status
		}
		if err == nil {
			entry.Status = domain.WebhookStatusDelivered
			entry.NextRetryAt = nil
			entry.LastError = nil
			s.record(ctx, entry)
			log.Info().Int("attempt", entry.Attempt).Int("status", status).Msg("delivered")
			return
		}

		msg := err.Error()
		entry.LastError = &msg
		if attempt < len(s.retryIntervals) {
			next := time.Now().Add(s.retryIntervals[attempt])
			entry.NextRetryAt = &next
		} else {
			entry.NextRetryAt = nil
			entry.Status = domain.WebhookStatusFailed
		}
		s.record(ctx, entry)
		log.Warn().Err(err).Int("attempt", entry.Attempt).Msg("delivery failed")
	}

	log.Error().Msg("all retry attempts exhausted")
}

func (s *payoutNotifier) post(ctx context.Context, entry *domain.WebhookDeliveryLog) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, entry.WebhookURL, bytes.NewReader([]byte(entry.Payload)))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("non-2xx response: %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (s *payoutNotifier) record(ctx context.Context, entry *domain.WebhookDeliveryLog) {
	if s.webhookRepo == nil {
		return
	}
	if err := s.webhookRepo.Update(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("payout_id", entry.PayoutID.String()).Msg("failed to update webhook delivery")
	}
}
