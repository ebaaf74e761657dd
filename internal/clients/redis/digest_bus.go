package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/review-digest/internal/platform/logger"
)

const (
	DefaultChannel = "review-digest"

	EventDigestRegenerated = "module_digest.regenerated"
)

// DigestEvent announces that a module's cached digest row was replaced.
type DigestEvent struct {
	Type        string    `json:"type"`
	ModuleID    string    `json:"module_id"`
	Fingerprint string    `json:"fingerprint"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

func NewDigestRegenerated(moduleID, fingerprint, source string, generatedAt time.Time) DigestEvent {
	return DigestEvent{
		Type:        EventDigestRegenerated,
		ModuleID:    moduleID,
		Fingerprint: fingerprint,
		Source:      source,
		GeneratedAt: generatedAt.UTC(),
	}
}

type DigestBus interface {
	Publish(ctx context.Context, ev DigestEvent) error
	StartForwarder(ctx context.Context, onEvent func(ev DigestEvent)) error
	Close() error
}

type Config struct {
	Addr    string
	Channel string
}

type digestBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewDigestBus(log *logger.Logger, cfg Config) (DigestBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = DefaultChannel
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

	return &digestBus{
		log:     log.With("service", "RedisDigestBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *digestBus) Publish(ctx context.Context, ev DigestEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis digest bus not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *digestBus) StartForwarder(ctx context.Context, onEvent func(ev DigestEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis digest bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				ev, err := DecodeDigestEvent([]byte(m.Payload))
				if err != nil {
					b.log.Warn("bad redis digest payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *digestBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

// DecodeDigestEvent parses a bus payload, rejecting events without a type or
// module id.
func DecodeDigestEvent(raw []byte) (DigestEvent, error) {
	var ev DigestEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return DigestEvent{}, err
	}
	if strings.TrimSpace(ev.Type) == "" || strings.TrimSpace(ev.ModuleID) == "" {
		return DigestEvent{}, fmt.Errorf("digest event missing type or module_id")
	}
	return ev, nil
}
