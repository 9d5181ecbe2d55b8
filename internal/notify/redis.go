package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "tablepos:tables:"

func Channel(tableID string) string {
	return channelPrefix + tableID
}

// RedisPublisher publishes order events so every server instance can
// deliver them to its own subscribers.
type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Notify(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, Channel(event.TableID), payload).Err()
}

// RunRelay keeps Relay running until ctx is done. Broker errors are logged and
// the subscription is retried after backoff; local delivery keeps working in
// the meantime.
func RunRelay(ctx context.Context, client redis.UniversalClient, hub *Hub, logger *zap.Logger, backoff time.Duration) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if backoff <= 0 {
		backoff = time.Second
	}

	for {
		err := Relay(ctx, client, hub, logger)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("order relay stopped, retrying", zap.Duration("backoff", backoff), zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Relay forwards events published on the table channels into the hub until
// ctx is done.
func Relay(ctx context.Context, client redis.UniversalClient, hub *Hub, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	pubsub := client.PSubscribe(ctx, channelPrefix+"*")
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event OrderEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn("discarding malformed order event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if event.TableID == "" {
				event.TableID = strings.TrimPrefix(msg.Channel, channelPrefix)
			}
			_ = hub.Notify(ctx, event)
		}
	}
}
