package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/logger"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const eventBuffer = 64

// ChangeChannel carries row changes over Redis pub/sub, one channel per
// table and merchant. It implements both ports.ChangeFeed and
// ports.ChangePublisher.
type ChangeChannel struct {
	client *goredis.Client
	prefix string
	log    zerolog.Logger
}

var (
	_ ports.ChangeFeed      = (*ChangeChannel)(nil)
	_ ports.ChangePublisher = (*ChangeChannel)(nil)
)

// NewChangeChannel creates a change channel whose names start with prefix.
func NewChangeChannel(client *goredis.Client, prefix string, log zerolog.Logger) *ChangeChannel {
	return &ChangeChannel{
		client: client,
		prefix: prefix,
		log:    logger.Component(log, "change_channel"),
	}
}

// Name returns the pub/sub channel for a table and merchant.
func (c *ChangeChannel) Name(table string, merchantID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, table, merchantID)
}

// Publish sends event to the channel of its table and merchantID.
func (c *ChangeChannel) Publish(ctx context.Context, merchantID uuid.UUID, event domain.RawChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding change event: %w", err)
	}
	if err := c.client.Publish(ctx, c.Name(event.Table, merchantID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe opens the channel for filter and waits for the subscription to
// be confirmed. Messages that do not match the filter are dropped.
func (c *ChangeChannel) Subscribe(ctx context.Context, filter domain.ChangeFilter) (ports.Subscription, error) {
	if filter.MerchantID == uuid.Nil {
		return nil, errors.New("subscribe: no merchant")
	}
	name := c.Name(filter.Table, filter.MerchantID)

	ps := c.client.Subscribe(ctx, name)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", name, err)
	}

	sub := &subscription{
		ps:     ps,
		events: make(chan domain.RawChangeEvent, eventBuffer),
		done:   make(chan struct{}),
	}
	log := c.log.With().Str("channel", name).Logger()
	go sub.pump(filter, log)

	log.Debug().Msg("subscribed")
	return sub, nil
}

type subscription struct {
	ps     *goredis.PubSub
	events chan domain.RawChangeEvent
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Events() <-chan domain.RawChangeEvent {
	return s.events
}

// Close ends the subscription. Events is closed shortly after.
func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *subscription) pump(filter domain.ChangeFilter, log zerolog.Logger) {
	defer close(s.events)

	msgs := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn().Msg("pub/sub channel closed")
				return
			}
			var ev domain.RawChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Msg("dropping undecodable change message")
				continue
			}
			if !filter.Matches(ev) {
				log.Warn().Str("table", ev.Table).Msg("dropping change message outside filter")
				continue
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}
