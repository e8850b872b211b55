package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrencies are seeded with zero balances the first time a merchant's
// balances are loaded.
var DefaultCurrencies = []string{"USDC", "USDT"}

// Balance is a merchant's aggregate funds in one currency.
// Total is expected to equal Onchain + Offchain; the platform asserts this,
// nothing here enforces it.
type Balance struct {
	ID         uuid.UUID       `json:"id"`
	MerchantID uuid.UUID       `json:"merchant_id"`
	Currency   string          `json:"currency"`
	Total      decimal.Decimal `json:"total"`
	Onchain    decimal.Decimal `json:"onchain"`
	Offchain   decimal.Decimal `json:"offchain"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewZeroBalance builds an unsaved zero balance row.
func NewZeroBalance(merchantID uuid.UUID, currency string, now time.Time) Balance {
	return Balance{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Currency:   currency,
		Total:      decimal.Zero,
		Onchain:    decimal.Zero,
		Offchain:   decimal.Zero,
		UpdatedAt:  now,
	}
}
