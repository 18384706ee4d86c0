package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "jobiai:notifications"

func NewRedisClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})
}

// RedisFanout publishes notifications on a Redis channel; every instance
// running Run delivers them to its own Hub.
type RedisFanout struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	log     *zap.Logger
	ready   chan struct{}
}

func NewRedisFanout(rdb *redis.Client, channel string, hub *Hub, log *zap.Logger) *RedisFanout {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisFanout{rdb: rdb, channel: channel, hub: hub, log: log, ready: make(chan struct{})}
}

func (f *RedisFanout) Broadcast(ctx context.Context, n Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, f.channel, b).Err()
}

// Ready is closed once Run holds a live subscription.
func (f *RedisFanout) Ready() <-chan struct{} { return f.ready }

// Run consumes the channel until ctx is done.
func (f *RedisFanout) Run(ctx context.Context) error {
	sub := f.rdb.Subscribe(ctx, f.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}
	close(f.ready)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var n Notification
			if err := json.Unmarshal([]byte(m.Payload), &n); err != nil {
				f.log.Warn("bad fan-out payload", zap.Error(err))
				continue
			}
			f.hub.Deliver(n)
		}
	}
}
