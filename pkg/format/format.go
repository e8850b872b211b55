// Package format turns balance and payout records into display strings.
// Every function is pure; output does not depend on the host locale.
package format

import (
	"strings"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// zeroDecimalCurrencies have no minor unit.
var zeroDecimalCurrencies = map[string]struct{}{
	"JPY": {}, "KRW": {}, "VND": {}, "CLP": {},
	"ISK": {}, "UGX": {}, "XAF": {}, "XOF": {},
}

// printer is fixed to English grouping so output is the same on every host.
var printer = message.NewPrinter(language.English)

// FormattedBalance holds the display strings for one balance row.
type FormattedBalance struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
	Onchain  string `json:"onchain"`
	Offchain string `json:"offchain"`
}

// Style is the badge color and icon for a status.
type Style struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Fraction returns the number of fraction digits shown for currency.
func Fraction(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(currency)]; ok {
		return 0
	}
	return 2
}

// Decimal formats d with thousands separators and exactly scale fraction digits.
func Decimal(d decimal.Decimal, scale int32) string {
	rounded := d.Round(scale)
	neg := rounded.IsNegative()
	if neg {
		rounded = rounded.Neg()
	}

	// The fraction comes from the decimal string so it is never routed
	// through float64. x/text only groups int64; larger magnitudes go
	// through humanize on the big.Int.
	var out string
	if whole := rounded.BigInt(); whole.IsInt64() {
		out = printer.Sprint(number.Decimal(whole.Int64()))
	} else {
		out = humanize.BigComma(whole)
	}

	if scale > 0 {
		fixed := rounded.StringFixed(scale)
		out += fixed[strings.IndexByte(fixed, '.'):]
	}
	if neg {
		out = "-" + out
	}
	return out
}

// Amount formats value for currency: two fraction digits by default, none for
// zero-decimal currencies.
func Amount(value decimal.Decimal, currency string) string {
	return Decimal(value, Fraction(currency))
}

// Balance formats the three amounts of b with two fraction digits each,
// regardless of currency.
func Balance(b domain.Balance) FormattedBalance {
	return FormattedBalance{
		Currency: b.Currency,
		Total:    Decimal(b.Total, 2),
		Onchain:  Decimal(b.Onchain, 2),
		Offchain: Decimal(b.Offchain, 2),
	}
}

// Balances formats a list of balances in order.
func Balances(bs []domain.Balance) []FormattedBalance {
	out := make([]FormattedBalance, 0, len(bs))
	for _, b := range bs {
		out = append(out, Balance(b))
	}
	return out
}

// RelativeTime describes t relative to now, e.g. "5 minutes ago".
func RelativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

var statusStyles = map[string]Style{
	// payouts
	"pending":    {Color: "yellow", Icon: "clock"},
	"processing": {Color: "blue", Icon: "loader"},
	"paid":       {Color: "green", Icon: "check-circle"},
	"failed":     {Color: "red", Icon: "x-circle"},
	// transactions
	"completed": {Color: "green", Icon: "check-circle"},
	"confirmed": {Color: "green", Icon: "check-circle"},
	"expired":   {Color: "gray", Icon: "clock"},
	"refunded":  {Color: "purple", Icon: "rotate-ccw"},
}

// StatusStyle maps a payout or transaction status to its badge style.
// Unknown statuses get a neutral style.
func StatusStyle(status string) Style {
	if s, ok := statusStyles[strings.ToLower(status)]; ok {
		return s
	}
	return Style{Color: "gray", Icon: "help-circle"}
}
