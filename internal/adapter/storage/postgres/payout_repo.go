package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const payoutColumns = `id, merchant_id, status, amount, currency, destination, destination_type,
	fee, tx_hash, notes, failure_reason, created_at, updated_at`

// PayoutRepo implements ports.PayoutRepository. Rows are written by the
// payout function; this side only reads.
type PayoutRepo struct {
	pool Pool
}

// NewPayoutRepo creates a new PayoutRepo.
func NewPayoutRepo(pool Pool) *PayoutRepo {
	return &PayoutRepo{pool: pool}
}

// ListByMerchant returns a merchant's payouts, newest first.
func (r *PayoutRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE merchant_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	out := []domain.Payout{}
	for rows.Next() {
		var p domain.Payout
		if err := scanPayout(rows, &p); err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payouts: %w", err)
	}
	return out, nil
}

// GetByID fetches a payout by its UUID. It returns nil, nil when absent.
func (r *PayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	p := &domain.Payout{}
	if err := scanPayout(r.pool.QueryRow(ctx, query, id), p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payout by id: %w", err)
	}
	return p, nil
}

// Summarize aggregates a merchant's payouts per currency, optionally only
// those created at or after since.
func (r *PayoutRepo) Summarize(ctx context.Context, merchantID uuid.UUID, since *time.Time) ([]domain.PayoutSummary, error) {
	args := []any{merchantID}
	condition := "merchant_id = $1"
	if since != nil {
		condition += " AND created_at >= $2"
		args = append(args, *since)
	}

	query := fmt.Sprintf(`SELECT currency,
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'pending') AS pending,
		COUNT(*) FILTER (WHERE status = 'processing') AS processing,
		COUNT(*) FILTER (WHERE status = 'paid') AS paid,
		COUNT(*) FILTER (WHERE status = 'failed') AS failed,
		COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0) AS paid_amount,
		COALESCE(SUM(fee) FILTER (WHERE status = 'paid'), 0) AS paid_fees
		FROM payouts WHERE %s GROUP BY currency ORDER BY currency`, condition)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize payouts: %w", err)
	}
	defer rows.Close()

	out := []domain.PayoutSummary{}
	for rows.Next() {
		var s domain.PayoutSummary
		if err := rows.Scan(
			&s.Currency, &s.Total, &s.Pending, &s.Processing, &s.Paid, &s.Failed,
			&s.PaidAmount, &s.PaidFees,
		); err != nil {
			return nil, fmt.Errorf("scan payout summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payout summary: %w", err)
	}
	return out, nil
}

func scanPayout(row pgx.Row, p *domain.Payout) error {
	var status, destType string
	if err := row.Scan(
		&p.ID, &p.MerchantID, &status, &p.Amount, &p.Currency,
		&p.Destination, &destType, &p.Fee, &p.TxHash, &p.Notes,
		&p.FailureReason, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return err
	}
	p.Status = domain.PayoutStatus(status)
	p.DestinationType = domain.DestinationType(destType)
	return nil
}
