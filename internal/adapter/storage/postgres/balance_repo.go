package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const balanceColumns = `id, merchant_id, currency, total, onchain, offchain, updated_at`

// BalanceRepo implements ports.BalanceRepository.
type BalanceRepo struct {
	pool Pool
}

// NewBalanceRepo creates a new BalanceRepo.
func NewBalanceRepo(pool Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

// ListByMerchant returns a merchant's balance rows ordered by currency.
func (r *BalanceRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE merchant_id = $1 ORDER BY currency`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	return scanBalances(rows)
}

// CreateDefaults inserts a zero row for each currency the merchant does not
// hold yet and returns the merchant's rows, all in one transaction. The
// unique (merchant_id, currency) constraint makes concurrent seeding safe.
func (r *BalanceRepo) CreateDefaults(ctx context.Context, merchantID uuid.UUID, currencies []string) ([]domain.Balance, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin seed balances: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	insert := `INSERT INTO balances (id, merchant_id, currency, total, onchain, offchain, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, $4)
		ON CONFLICT (merchant_id, currency) DO NOTHING`

	now := time.Now().UTC()
	for _, currency := range currencies {
		if _, err := tx.Exec(ctx, insert, uuid.New(), merchantID, currency, now); err != nil {
			return nil, fmt.Errorf("seed %s balance: %w", currency, err)
		}
	}

	rows, err := tx.Query(ctx, `SELECT `+balanceColumns+` FROM balances WHERE merchant_id = $1 ORDER BY currency`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list seeded balances: %w", err)
	}
	out, err := scanBalances(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit seed balances: %w", err)
	}
	return out, nil
}

func scanBalances(rows pgx.Rows) ([]domain.Balance, error) {
	defer rows.Close()

	out := []domain.Balance{}
	for rows.Next() {
		var b domain.Balance
		if err := rows.Scan(
			&b.ID, &b.MerchantID, &b.Currency,
			&b.Total, &b.Onchain, &b.Offchain, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	return out, nil
}
