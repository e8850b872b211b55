package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/adapter/http/dto"
	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	Name string
	Data dto.StreamEvent
}

// openStream connects to /api/v1/stream and decodes events in the background.
// The connection is closed when the test ends.
func (a *testApp) openStream(t *testing.T, merchantID uuid.UUID) <-chan sseEvent {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.server.URL+"/api/v1/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+a.token(t, merchantID))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := make(chan sseEvent, 64)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		var name string
		for scanner.Scan() {
			line := scanner.Text()
			if v, ok := strings.CutPrefix(line, "event:"); ok {
				name = strings.TrimSpace(v)
				continue
			}
			if v, ok := strings.CutPrefix(line, "data:"); ok {
				var ev dto.StreamEvent
				if json.Unmarshal([]byte(strings.TrimSpace(v)), &ev) == nil {
					events <- sseEvent{Name: name, Data: ev}
				}
			}
		}
	}()

	t.Cleanup(func() {
		cancel()
		resp.Body.Close()
	})
	return events
}

// waitFor reads events until match returns true.
func waitFor(t *testing.T, events <-chan sseEvent, match func(sseEvent) bool) sseEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream ended")
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for stream event")
			return sseEvent{}
		}
	}
}

// waitSubscribed blocks until the session holds both change channels.
func (a *testApp) waitSubscribed(t *testing.T, merchantID uuid.UUID) {
	t.Helper()
	names := []string{
		a.changes.Name(domain.TableBalances, merchantID),
		a.changes.Name(domain.TablePayouts, merchantID),
	}
	require.Eventually(t, func() bool {
		counts := a.redis.PubSubNumSub(names...)
		return counts[names[0]] == 1 && counts[names[1]] == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func hasPayout(ev sseEvent, id uuid.UUID, status string) bool {
	for _, p := range ev.Data.Payouts {
		if p.ID == id.String() && (status == "" || p.Status == status) {
			return true
		}
	}
	return false
}

func TestIntegration_StreamLoadsThenFollowsChanges(t *testing.T) {
	app := newTestApp(t)
	merchantID := uuid.New()

	existing := domain.Payout{
		ID: uuid.New(), MerchantID: merchantID, Status: domain.PayoutStatusPaid,
		Amount: decimal.NewFromInt(10), Currency: "USDC", CreatedAt: time.Now().Add(-time.Hour),
	}
	app.payouts.put(existing)

	events := app.openStream(t, merchantID)
	app.waitSubscribed(t, merchantID)

	// Initial loads: seeded balances and the stored payout.
	waitFor(t, events, func(ev sseEvent) bool {
		return len(ev.Data.Balances) == 2 && hasPayout(ev, existing.ID, "paid")
	})

	// A new payout is pushed to the front.
	p9 := domain.Payout{
		ID: uuid.New(), MerchantID: merchantID, Status: domain.PayoutStatusPending,
		Amount: decimal.NewFromInt(25), Currency: "USDC", CreatedAt: time.Now(),
	}
	resp := app.postHook(t, payoutEvent(t, domain.EventInsert, &p9, nil), nextNonce())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	ev := waitFor(t, events, func(ev sseEvent) bool { return hasPayout(ev, p9.ID, "") })
	require.Equal(t, p9.ID.String(), ev.Data.Payouts[0].ID)
	require.Len(t, ev.Data.Payouts, 2)

	// Status moves forward.
	processing := p9
	processing.Status = domain.PayoutStatusProcessing
	resp = app.postHook(t, payoutEvent(t, domain.EventUpdate, &processing, &p9), nextNonce())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	waitFor(t, events, func(ev sseEvent) bool { return hasPayout(ev, p9.ID, "processing") })

	// A balance update replaces the row in place.
	balances, err := app.balances.ListByMerchant(context.Background(), merchantID)
	require.NoError(t, err)
	require.NotEmpty(t, balances)
	updated := balances[0]
	updated.Total = decimal.RequireFromString("1234.5")
	updated.Onchain = decimal.RequireFromString("1234.5")
	record, err := json.Marshal(updated)
	require.NoError(t, err)
	resp = app.postHook(t, domain.RawChangeEvent{Type: domain.EventUpdate, Table: domain.TableBalances, Record: record}, nextNonce())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	ev = waitFor(t, events, func(ev sseEvent) bool {
		for _, b := range ev.Data.Balances {
			if b.ID == updated.ID.String() && b.Display.Total == "1,234.50" {
				return true
			}
		}
		return false
	})
	require.Len(t, ev.Data.Balances, 2)
}

func TestIntegration_StreamIgnoresOtherMerchants(t *testing.T) {
	app := newTestApp(t)
	merchantID := uuid.New()
	otherID := uuid.New()

	events := app.openStream(t, merchantID)
	app.waitSubscribed(t, merchantID)
	waitFor(t, events, func(ev sseEvent) bool { return len(ev.Data.Balances) == 2 })

	foreign := domain.Payout{ID: uuid.New(), MerchantID: otherID, Status: domain.PayoutStatusPending, Currency: "USDC", CreatedAt: time.Now()}
	resp := app.postHook(t, payoutEvent(t, domain.EventInsert, &foreign, nil), nextNonce())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	own := domain.Payout{ID: uuid.New(), MerchantID: merchantID, Status: domain.PayoutStatusPending, Currency: "USDC", CreatedAt: time.Now()}
	resp = app.postHook(t, payoutEvent(t, domain.EventInsert, &own, nil), nextNonce())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Events on one channel arrive in order, so once the own payout shows up
	// the foreign one would already have been applied.
	ev := waitFor(t, events, func(ev sseEvent) bool { return hasPayout(ev, own.ID, "") })
	require.False(t, hasPayout(ev, foreign.ID, ""))
	require.Len(t, ev.Data.Payouts, 1)
}

func TestIntegration_StreamRejectsStatusRegression(t *testing.T) {
	app := newTestApp(t)
	merchantID := uuid.New()

	paid := domain.Payout{
		ID: uuid.New(), MerchantID: merchantID, Status: domain.PayoutStatusPaid,
		Amount: decimal.NewFromInt(5), Currency: "USDC", CreatedAt: time.Now(),
	}
	app.payouts.put(paid)

	events := app.openStream(t, merchantID)
	app.waitSubscribed(t, merchantID)
	waitFor(t, events, func(ev sseEvent) bool { return hasPayout(ev, paid.ID, "paid") })

	stale := paid
	stale.Status = domain.PayoutStatusProcessing
	resp := app.postHook(t, payoutEvent(t, domain.EventUpdate, &stale, nil), nextNonce())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	marker := domain.Payout{ID: uuid.New(), MerchantID: merchantID, Status: domain.PayoutStatusPending, Currency: "USDC", CreatedAt: time.Now()}
	resp = app.postHook(t, payoutEvent(t, domain.EventInsert, &marker, nil), nextNonce())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	ev := waitFor(t, events, func(ev sseEvent) bool { return hasPayout(ev, marker.ID, "") })
	require.True(t, hasPayout(ev, paid.ID, "paid"), "a paid payout never moves back")
}
