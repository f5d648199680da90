package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"agenda/backend/internal/domain"
)

// RedisPublisher publishes booking lists as JSON on a redis channel named by
// the topic. Subscribed frontends re-render from the full list, so there is
// no per-event payload shape to version.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, bookings []domain.Booking) error {
	payload, err := json.Marshal(bookings)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, topic, payload).Err()
}
