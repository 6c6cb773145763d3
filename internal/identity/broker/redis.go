package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const DefaultChannelPrefix = "identity.events"

// RedisConfig selects the server and the channel naming. Each message is
// published on "<ChannelPrefix>.<event name>".
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
	DialTimeout   time.Duration
}

// RedisPublisher fans integration events out over Redis pub/sub.
type RedisPublisher struct {
	rdb    *goredis.Client
	prefix string
}

// envelope is the wire form. Payload is embedded raw so subscribers see the
// event fields, not a base64 string.
type envelope struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	AggregateID string            `json:"aggregate_id"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Payload     json.RawMessage   `json:"payload"`
}

// NewRedisPublisher connects and pings the server before returning.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig) (*RedisPublisher, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("broker: redis address is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	prefix := strings.TrimSpace(cfg.ChannelPrefix)
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("broker: redis ping: %w", err)
	}

	return &RedisPublisher{rdb: rdb, prefix: prefix}, nil
}

// Channel returns the channel a message with the given event name is sent on.
func (p *RedisPublisher) Channel(eventName string) string {
	return p.prefix + "." + eventName
}

func (p *RedisPublisher) Publish(ctx context.Context, msg Message) error {
	if p == nil || p.rdb == nil {
		return errors.New("broker: redis publisher not initialized")
	}
	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	raw, err := json.Marshal(envelope{
		ID:          msg.ID,
		Name:        msg.Name,
		AggregateID: msg.AggregateID,
		OccurredAt:  msg.OccurredAt,
		Attributes:  msg.Attributes,
		Payload:     payload,
	})
	if err != nil {
		return fmt.Errorf("broker: encode %s: %w", msg.Name, err)
	}
	return p.rdb.Publish(ctx, p.Channel(msg.Name), raw).Err()
}

// Ping checks the connection; the readiness probe calls it.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

func (p *RedisPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

// Subscribe listens on every identity channel and calls onMsg until ctx is
// done. It returns once the subscription is confirmed by the server.
func (p *RedisPublisher) Subscribe(ctx context.Context, onMsg func(Message)) error {
	if onMsg == nil {
		return errors.New("broker: onMsg callback required")
	}

	sub := p.rdb.PSubscribe(ctx, p.prefix+".*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("broker: redis subscribe: %w", err)
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
				var env envelope
				if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
					continue
				}
				onMsg(Message{
					ID:          env.ID,
					Name:        env.Name,
					AggregateID: env.AggregateID,
					OccurredAt:  env.OccurredAt,
					Attributes:  env.Attributes,
					Payload:     env.Payload,
				})
			}
		}
	}()

	return nil
}
