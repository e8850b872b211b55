package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutStatus represents the lifecycle state of a payout.
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusPaid       PayoutStatus = "paid"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// DestinationType tells whether a payout goes to a chain address or a bank.
type DestinationType string

const (
	DestinationOnchain DestinationType = "onchain"
	DestinationBank    DestinationType = "bank"
)

// Payout is an outbound transfer from a merchant balance.
type Payout struct {
	ID              uuid.UUID       `json:"id"`
	MerchantID      uuid.UUID       `json:"merchant_id"`
	Status          PayoutStatus    `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Destination     string          `json:"destination"`
	DestinationType DestinationType `json:"destination_type"`
	Fee             decimal.Decimal `json:"fee"`
	TxHash          *string         `json:"tx_hash,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	FailureReason   *string         `json:"failure_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// rank orders statuses along pending -> processing -> paid|failed.
// Unknown statuses rank -1.
func (s PayoutStatus) rank() int {
	switch s {
	case PayoutStatusPending:
		return 0
	case PayoutStatusProcessing:
		return 1
	case PayoutStatusPaid, PayoutStatusFailed:
		return 2
	default:
		return -1
	}
}

// IsValid reports whether s is one of the known statuses.
func (s PayoutStatus) IsValid() bool {
	return s.rank() >= 0
}

// IsTerminal returns true for paid and failed.
func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusPaid || s == PayoutStatusFailed
}

// CanTransitionTo reports whether a payout in status s may be observed in
// status next. Repeating the current status is allowed so that updates to
// other columns still apply. Unknown statuses on either side are not judged.
func (s PayoutStatus) CanTransitionTo(next PayoutStatus) bool {
	if s == next {
		return true
	}
	if !s.IsValid() || !next.IsValid() {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	return next.rank() > s.rank()
}

// IsTerminal returns true if the payout is in a final state.
func (p *Payout) IsTerminal() bool {
	return p.Status.IsTerminal()
}

// CreatePayoutRequest is the body sent to the payout creation function.
// Exactly one of DestinationAddress and DestinationID is set.
type CreatePayoutRequest struct {
	Amount             string `json:"amount"`
	Currency           string `json:"currency,omitempty"`
	DestinationAddress string `json:"destination_address,omitempty"`
	DestinationID      string `json:"destination_id,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

// CreatePayoutResult is what the payout creation function returns on success.
type CreatePayoutResult struct {
	Message string  `json:"message"`
	Payout  *Payout `json:"payout,omitempty"`
}

// PayoutSummary aggregates one currency's payouts over a period.
type PayoutSummary struct {
	Currency   string          `json:"currency"`
	Total      int64           `json:"total"`
	Pending    int64           `json:"pending"`
	Processing int64           `json:"processing"`
	Paid       int64           `json:"paid"`
	Failed     int64           `json:"failed"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	PaidFees   decimal.Decimal `json:"paid_fees"`
}
