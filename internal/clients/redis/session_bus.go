package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

// SessionBus fans session-change events out across instances, so every
// instance's session stores observe sign-in/sign-out no matter which node
// handled the request.
type SessionBus interface {
	Publish(ctx context.Context, ev domain.SessionEvent) error
	StartForwarder(ctx context.Context, onEvent func(ev domain.SessionEvent)) error
	Close() error
}

type sessionBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewSessionBus(log *logger.Logger, addr, channel string) (SessionBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr required")
	}
	if strings.TrimSpace(channel) == "" {
		channel = "session-events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &sessionBus{
		log:     log.With("service", "RedisSessionBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *sessionBus) Publish(ctx context.Context, ev domain.SessionEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("session bus not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *sessionBus) StartForwarder(ctx context.Context, onEvent func(ev domain.SessionEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("session bus not initialized")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %q: %w", b.channel, err)
	}
	ch := sub.Channel()
	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev domain.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn("dropping malformed session event", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *sessionBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
