package dto

import (
	"errors"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/format"
)

// CreatePayoutRequest is the request body for payout creation.
// Exactly one of DestinationAddress and DestinationID must be set.
type CreatePayoutRequest struct {
	Amount             string `json:"amount" binding:"required,positive_decimal" sanitize:"trim"`
	Currency           string `json:"currency,omitempty" binding:"omitempty,min=3,max=10,alphanum"`
	DestinationAddress string `json:"destination_address,omitempty" binding:"required_without=DestinationID,omitempty,safe_id,max=128"`
	DestinationID      string `json:"destination_id,omitempty" binding:"required_without=DestinationAddress,omitempty,safe_id,max=64"`
	Notes              string `json:"notes,omitempty" binding:"max=500" sanitize:"trim"`
}

// ToDomain converts the request into the function payload.
func (r CreatePayoutRequest) ToDomain() domain.CreatePayoutRequest {
	return domain.CreatePayoutRequest{
		Amount:             r.Amount,
		Currency:           r.Currency,
		DestinationAddress: r.DestinationAddress,
		DestinationID:      r.DestinationID,
		Notes:              r.Notes,
	}
}

// BalanceView is a balance row with its display strings.
type BalanceView struct {
	ID        string                  `json:"id"`
	Currency  string                  `json:"currency"`
	Total     string                  `json:"total"`
	Onchain   string                  `json:"onchain"`
	Offchain  string                  `json:"offchain"`
	UpdatedAt string                  `json:"updated_at"`
	Display   format.FormattedBalance `json:"display"`
}

// PayoutView is a payout row with its display strings.
type PayoutView struct {
	ID              string        `json:"id"`
	Status          string        `json:"status"`
	Amount          string        `json:"amount"`
	Fee             string        `json:"fee"`
	Currency        string        `json:"currency"`
	Destination     string        `json:"destination"`
	DestinationType string        `json:"destination_type"`
	TxHash          *string       `json:"tx_hash,omitempty"`
	Notes           *string       `json:"notes,omitempty"`
	FailureReason   *string       `json:"failure_reason,omitempty"`
	CreatedAt       string        `json:"created_at"`
	UpdatedAt       string        `json:"updated_at"`
	Display         PayoutDisplay `json:"display"`
}

// PayoutDisplay holds the formatted fields of a payout.
type PayoutDisplay struct {
	Amount string       `json:"amount"`
	Fee    string       `json:"fee"`
	Status format.Style `json:"status"`
	Age    string       `json:"age"`
}

// BalancesResponse is the response body for the balance list.
type BalancesResponse struct {
	Balances []BalanceView `json:"balances"`
}

// PayoutsResponse is the response body for the payout list.
type PayoutsResponse struct {
	Payouts []PayoutView `json:"payouts"`
}

// PayoutSummaryView is one currency's row of a payout summary.
type PayoutSummaryView struct {
	Currency          string `json:"currency"`
	Total             int64  `json:"total"`
	Pending           int64  `json:"pending"`
	Processing        int64  `json:"processing"`
	Paid              int64  `json:"paid"`
	Failed            int64  `json:"failed"`
	PaidAmount        string `json:"paid_amount"`
	PaidFees          string `json:"paid_fees"`
	PaidAmountDisplay string `json:"paid_amount_display"`
}

// PayoutSummaryResponse is the response body for the payout summary.
type PayoutSummaryResponse struct {
	Period     string              `json:"period"`
	Since      *string             `json:"since"`
	Currencies []PayoutSummaryView `json:"currencies"`
}

// CreatePayoutResponse is the response body for a created payout.
// Stale is true when the list could not be re-read after creation.
type CreatePayoutResponse struct {
	Message string       `json:"message"`
	Payout  *PayoutView  `json:"payout,omitempty"`
	Payouts []PayoutView `json:"payouts"`
	Stale   bool         `json:"stale"`
}

// UpdateWebhookRequest sets or clears the payout notification endpoint.
type UpdateWebhookRequest struct {
	WebhookURL *string `json:"webhook_url" binding:"omitempty,safe_url,max=500" sanitize:"trim"`
}

// WebhookSettingsResponse is a merchant's notification endpoint. Secret is
// only present right after it was issued.
type WebhookSettingsResponse struct {
	WebhookURL *string `json:"webhook_url"`
	Configured bool    `json:"configured"`
	Secret     string  `json:"secret,omitempty"`
}

// TwoFactorSetupResponse is the enrollment material of a 2FA setup.
type TwoFactorSetupResponse struct {
	Success     bool     `json:"success"`
	Secret      string   `json:"secret"`
	QRCodeURL   string   `json:"qr_code_url"`
	BackupCodes []string `json:"backup_codes"`
}

// StreamError is a sticky failure reported on a stream snapshot.
type StreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StreamEvent is one server-sent snapshot of a live session.
type StreamEvent struct {
	Kind     string                 `json:"kind"`
	Balances []BalanceView          `json:"balances"`
	Payouts  []PayoutView           `json:"payouts"`
	Errors   map[string]StreamError `json:"errors,omitempty"`
}

// NewBalanceView builds the view of one balance.
func NewBalanceView(b domain.Balance) BalanceView {
	return BalanceView{
		ID:        b.ID.String(),
		Currency:  b.Currency,
		Total:     b.Total.String(),
		Onchain:   b.Onchain.String(),
		Offchain:  b.Offchain.String(),
		UpdatedAt: b.UpdatedAt.UTC().Format(time.RFC3339),
		Display:   format.Balance(b),
	}
}

// NewPayoutSummaryResponse converts a payout report. Currencies is never nil.
func NewPayoutSummaryResponse(r *ports.PayoutReport) PayoutSummaryResponse {
	resp := PayoutSummaryResponse{
		Period:     r.Period,
		Currencies: make([]PayoutSummaryView, 0, len(r.Currencies)),
	}
	if r.Since != nil {
		since := r.Since.UTC().Format(time.RFC3339)
		resp.Since = &since
	}
	for _, c := range r.Currencies {
		resp.Currencies = append(resp.Currencies, PayoutSummaryView{
			Currency:          c.Currency,
			Total:             c.Total,
			Pending:           c.Pending,
			Processing:        c.Processing,
			Paid:              c.Paid,
			Failed:            c.Failed,
			PaidAmount:        c.PaidAmount.String(),
			PaidFees:          c.PaidFees.String(),
			PaidAmountDisplay: format.Amount(c.PaidAmount, c.Currency),
		})
	}
	return resp
}

// NewBalanceViews builds views in order. The result is never nil.
func NewBalanceViews(bs []domain.Balance) []BalanceView {
	out := make([]BalanceView, 0, len(bs))
	for _, b := range bs {
		out = append(out, NewBalanceView(b))
	}
	return out
}

// NewPayoutView builds the view of one payout. Age is relative to now.
func NewPayoutView(p domain.Payout, now time.Time) PayoutView {
	return PayoutView{
		ID:              p.ID.String(),
		Status:          string(p.Status),
		Amount:          p.Amount.String(),
		Fee:             p.Fee.String(),
		Currency:        p.Currency,
		Destination:     p.Destination,
		DestinationType: string(p.DestinationType),
		TxHash:          p.TxHash,
		Notes:           p.Notes,
		FailureReason:   p.FailureReason,
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.UTC().Format(time.RFC3339),
		Display: PayoutDisplay{
			Amount: format.Amount(p.Amount, p.Currency),
			Fee:    format.Amount(p.Fee, p.Currency),
			Status: format.StatusStyle(string(p.Status)),
			Age:    format.RelativeTime(p.CreatedAt, now),
		},
	}
}

// NewPayoutViews builds views in order. The result is never nil.
func NewPayoutViews(ps []domain.Payout, now time.Time) []PayoutView {
	out := make([]PayoutView, 0, len(ps))
	for _, p := range ps {
		out = append(out, NewPayoutView(p, now))
	}
	return out
}

// NewCreatePayoutResponse builds the response of a payout creation.
func NewCreatePayoutResponse(c *ports.PayoutCreation, now time.Time) CreatePayoutResponse {
	resp := CreatePayoutResponse{
		Message: c.Message,
		Payouts: NewPayoutViews(c.Payouts, now),
		Stale:   c.RefreshErr != nil,
	}
	if c.Payout != nil {
		v := NewPayoutView(*c.Payout, now)
		resp.Payout = &v
	}
	return resp
}

// NewStreamEvent builds the snapshot sent for one session update.
func NewStreamEvent(u ports.SessionUpdate, now time.Time) StreamEvent {
	ev := StreamEvent{
		Kind:     string(u.Kind),
		Balances: NewBalanceViews(u.Balances),
		Payouts:  NewPayoutViews(u.Payouts, now),
	}
	addErr := func(key string, err error) {
		if err == nil {
			return
		}
		if ev.Errors == nil {
			ev.Errors = make(map[string]StreamError)
		}
		ev.Errors[key] = toStreamError(err)
	}
	addErr("balances", u.BalancesErr)
	addErr("payouts", u.PayoutsErr)
	addErr("channel", u.ChannelErr)
	return ev
}

func toStreamError(err error) StreamError {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return StreamError{Code: appErr.Code, Message: appErr.Message}
	}
	return StreamError{Code: "SYS_000", Message: "Data may be out of date"}
}
