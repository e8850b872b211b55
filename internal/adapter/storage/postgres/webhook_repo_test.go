package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeliveryLog() *domain.WebhookDeliveryLog {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.WebhookDeliveryLog{
		ID:         uuid.New(),
		PayoutID:   uuid.New(),
		MerchantID: uuid.New(),
		WebhookURL: "https://example.com/webhook",
		Payload:    `{"event_type":"payout.paid"}`,
		Status:     domain.WebhookStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestWebhookRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	l := newTestDeliveryLog()

	mock.ExpectExec("INSERT INTO webhook_delivery_logs").
		WithArgs(l.ID, l.PayoutID, l.MerchantID, l.WebhookURL, l.Payload,
			l.HTTPStatus, l.Attempt, "PENDING", l.NextRetryAt, l.LastError,
			l.CreatedAt, l.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), l))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	l := newTestDeliveryLog()
	status := 200
	l.HTTPStatus = &status
	l.Attempt = 2
	l.Status = domain.WebhookStatusDelivered

	mock.ExpectExec("UPDATE webhook_delivery_logs").
		WithArgs(l.HTTPStatus, 2, "DELIVERED", l.NextRetryAt, l.LastError, pgxmock.AnyArg(), l.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	before := l.UpdatedAt
	assert.NoError(t, repo.Update(context.Background(), l))
	assert.False(t, l.UpdatedAt.Before(before))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepo_ListByPayoutID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	l := newTestDeliveryLog()

	rows := pgxmock.NewRows([]string{
		"id", "payout_id", "merchant_id", "webhook_url", "payload",
		"http_status", "attempt", "status", "next_retry_at", "last_error",
		"created_at", "updated_at",
	}).AddRow(
		l.ID, l.PayoutID, l.MerchantID, l.WebhookURL, l.Payload,
		l.HTTPStatus, 1, "FAILED", l.NextRetryAt, l.LastError,
		l.CreatedAt, l.UpdatedAt,
	)
	mock.ExpectQuery("FROM webhook_delivery_logs").
		WithArgs(l.PayoutID).
		WillReturnRows(rows)

	got, err := repo.ListByPayoutID(context.Background(), l.PayoutID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.WebhookStatusFailed, got[0].Status)
	assert.Equal(t, 1, got[0].Attempt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
