package redis

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChannel(t *testing.T) (*ChangeChannel, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewChangeChannel(client, "realtime", zerolog.New(io.Discard)), mr
}

func balanceChange(t *testing.T, merchantID uuid.UUID, total string) domain.RawChangeEvent {
	t.Helper()
	rec, err := json.Marshal(map[string]any{
		"id":          uuid.New(),
		"merchant_id": merchantID,
		"currency":    "USDC",
		"total":       total,
	})
	require.NoError(t, err)
	return domain.RawChangeEvent{Type: domain.EventUpdate, Table: domain.TableBalances, Record: rec}
}

func nextEvent(t *testing.T, ch <-chan domain.RawChangeEvent) domain.RawChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "events closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return domain.RawChangeEvent{}
	}
}

func TestChangeChannel_Name(t *testing.T) {
	cc, _ := newTestChannel(t)
	id := uuid.MustParse("0b7c7f4e-1c1a-4c1e-9f43-0f3f7f8d2a11")
	assert.Equal(t, "realtime:payouts:0b7c7f4e-1c1a-4c1e-9f43-0f3f7f8d2a11", cc.Name(domain.TablePayouts, id))
}

func TestChangeChannel_PublishSubscribe(t *testing.T) {
	cc, _ := newTestChannel(t)
	ctx := context.Background()
	m := uuid.New()

	sub, err := cc.Subscribe(ctx, domain.ChangeFilter{Table: domain.TableBalances, MerchantID: m})
	require.NoError(t, err)
	defer sub.Close()

	ev := balanceChange(t, m, "42")
	require.NoError(t, cc.Publish(ctx, m, ev))

	got := nextEvent(t, sub.Events())
	assert.Equal(t, domain.EventUpdate, got.Type)
	assert.Equal(t, domain.TableBalances, got.Table)
	assert.JSONEq(t, string(ev.Record), string(got.Record))
}

func TestChangeChannel_DropsForeignAndMalformedMessages(t *testing.T) {
	cc, mr := newTestChannel(t)
	ctx := context.Background()
	m := uuid.New()

	sub, err := cc.Subscribe(ctx, domain.ChangeFilter{Table: domain.TableBalances, MerchantID: m})
	require.NoError(t, err)
	defer sub.Close()

	name := cc.Name(domain.TableBalances, m)
	foreign, err := json.Marshal(balanceChange(t, uuid.New(), "999"))
	require.NoError(t, err)
	mr.Publish(name, string(foreign))
	mr.Publish(name, "not json")

	want := balanceChange(t, m, "7")
	require.NoError(t, cc.Publish(ctx, m, want))

	got := nextEvent(t, sub.Events())
	assert.JSONEq(t, string(want.Record), string(got.Record))
}

func TestChangeChannel_OtherMerchantChannelIsSeparate(t *testing.T) {
	cc, _ := newTestChannel(t)
	ctx := context.Background()
	mine, theirs := uuid.New(), uuid.New()

	sub, err := cc.Subscribe(ctx, domain.ChangeFilter{Table: domain.TableBalances, MerchantID: mine})
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, cc.Publish(ctx, theirs, balanceChange(t, theirs, "1")))

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChangeChannel_CloseEndsEvents(t *testing.T) {
	cc, _ := newTestChannel(t)
	m := uuid.New()

	sub, err := cc.Subscribe(context.Background(), domain.ChangeFilter{Table: domain.TablePayouts, MerchantID: m})
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestChangeChannel_SubscribeRequiresMerchant(t *testing.T) {
	cc, _ := newTestChannel(t)
	_, err := cc.Subscribe(context.Background(), domain.ChangeFilter{Table: domain.TablePayouts})
	assert.Error(t, err)
}

func TestChangeChannel_SubscribeFailsWhenRedisDown(t *testing.T) {
	cc, mr := newTestChannel(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := cc.Subscribe(ctx, domain.ChangeFilter{Table: domain.TablePayouts, MerchantID: uuid.New()})
	assert.Error(t, err)
}
