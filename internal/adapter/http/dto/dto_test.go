package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var viewNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func samplePayout() domain.Payout {
	hash := "0xdeadbeef"
	return domain.Payout{
		ID:              uuid.New(),
		MerchantID:      uuid.New(),
		Status:          domain.PayoutStatusPaid,
		Amount:          decimal.RequireFromString("1234.5"),
		Fee:             decimal.RequireFromString("1.25"),
		Currency:        "USDC",
		Destination:     "0xabc",
		DestinationType: domain.DestinationOnchain,
		TxHash:          &hash,
		CreatedAt:       viewNow.Add(-5 * time.Minute),
		UpdatedAt:       viewNow,
	}
}

func TestCreatePayoutRequest_ToDomain(t *testing.T) {
	req := CreatePayoutRequest{Amount: "10", Currency: "USDT", DestinationID: "bank-1", Notes: "n"}
	got := req.ToDomain()

	assert.Equal(t, domain.CreatePayoutRequest{
		Amount: "10", Currency: "USDT", DestinationID: "bank-1", Notes: "n",
	}, got)
}

func TestNewBalanceView(t *testing.T) {
	b := domain.Balance{
		ID:        uuid.New(),
		Currency:  "USDC",
		Total:     decimal.RequireFromString("1500"),
		Onchain:   decimal.RequireFromString("1000"),
		Offchain:  decimal.RequireFromString("500"),
		UpdatedAt: viewNow,
	}

	v := NewBalanceView(b)

	assert.Equal(t, "1500", v.Total)
	assert.Equal(t, "1,500.00", v.Display.Total)
	assert.Equal(t, "500.00", v.Display.Offchain)
	assert.Equal(t, "2026-03-10T12:00:00Z", v.UpdatedAt)
}

func TestNewPayoutView(t *testing.T) {
	p := samplePayout()
	v := NewPayoutView(p, viewNow)

	assert.Equal(t, "paid", v.Status)
	assert.Equal(t, "1234.5", v.Amount)
	assert.Equal(t, "1,234.50", v.Display.Amount)
	assert.Equal(t, "1.25", v.Display.Fee)
	assert.Equal(t, "green", v.Display.Status.Color)
	assert.Equal(t, "5 minutes ago", v.Display.Age)
	assert.Equal(t, "onchain", v.DestinationType)
	require.NotNil(t, v.TxHash)
}

func TestNewViews_NeverNil(t *testing.T) {
	assert.NotNil(t, NewBalanceViews(nil))
	assert.NotNil(t, NewPayoutViews(nil, viewNow))
}

func TestNewCreatePayoutResponse(t *testing.T) {
	p := samplePayout()

	fresh := NewCreatePayoutResponse(&ports.PayoutCreation{
		Message: "Payout created",
		Payout:  &p,
		Payouts: []domain.Payout{p},
	}, viewNow)
	assert.False(t, fresh.Stale)
	require.NotNil(t, fresh.Payout)
	assert.Len(t, fresh.Payouts, 1)

	stale := NewCreatePayoutResponse(&ports.PayoutCreation{
		Message:    "Payout created",
		RefreshErr: apperror.ErrFetch("payouts", errors.New("timeout")),
	}, viewNow)
	assert.True(t, stale.Stale)
	assert.Nil(t, stale.Payout)
	assert.NotNil(t, stale.Payouts)
}

func TestNewStreamEvent(t *testing.T) {
	ev := NewStreamEvent(ports.SessionUpdate{
		Kind:        ports.UpdatePayouts,
		Payouts:     []domain.Payout{samplePayout()},
		ChannelErr:  apperror.ErrChannel(errors.New("dropped")),
		BalancesErr: errors.New("plain"),
	}, viewNow)

	assert.Equal(t, "payouts", ev.Kind)
	assert.Len(t, ev.Payouts, 1)
	assert.Empty(t, ev.Balances)
	assert.Equal(t, apperror.CodeChannel, ev.Errors["channel"].Code)
	assert.Equal(t, "SYS_000", ev.Errors["balances"].Code)
	_, hasPayoutErr := ev.Errors["payouts"]
	assert.False(t, hasPayoutErr)

	clean := NewStreamEvent(ports.SessionUpdate{Kind: ports.UpdateBalances}, viewNow)
	assert.Nil(t, clean.Errors)
}

func TestNewPayoutSummaryResponse(t *testing.T) {
	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	resp := NewPayoutSummaryResponse(&ports.PayoutReport{
		Period: "week",
		Since:  &since,
		Currencies: []domain.PayoutSummary{{
			Currency:   "USDC",
			Total:      3,
			Paid:       2,
			PaidAmount: decimal.RequireFromString("12345.5"),
			PaidFees:   decimal.RequireFromString("2"),
		}},
	})

	assert.Equal(t, "week", resp.Period)
	require.NotNil(t, resp.Since)
	assert.Equal(t, "2026-01-02T03:04:05Z", *resp.Since)
	require.Len(t, resp.Currencies, 1)
	assert.Equal(t, "12345.5", resp.Currencies[0].PaidAmount)
	assert.Equal(t, "12,345.50", resp.Currencies[0].PaidAmountDisplay)

	empty := NewPayoutSummaryResponse(&ports.PayoutReport{Period: "all"})
	assert.Nil(t, empty.Since)
	assert.NotNil(t, empty.Currencies)
}
