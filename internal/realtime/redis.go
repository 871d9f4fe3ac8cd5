package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
)

// KeyPrefixChanges is the prefix of per-owner change channels
const KeyPrefixChanges = "smartmarks:changes:"

// ChannelName returns the pub/sub channel carrying owner's changes
func ChannelName(owner string) string {
	return KeyPrefixChanges + owner
}

// RedisFeed carries changes over Redis pub/sub so every instance behind a
// load balancer sees them.
type RedisFeed struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedisFeed(client *redis.Client, log logger.Logger) *RedisFeed {
	return &RedisFeed{client: client, log: log}
}

func (f *RedisFeed) Publish(ctx context.Context, ev domain.Event) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, ChannelName(ev.OwnerID()), data).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so events
// published afterwards are not missed.
func (f *RedisFeed) Subscribe(ctx context.Context, owner string, h Handler) (*Subscription, error) {
	ps := f.client.Subscribe(ctx, ChannelName(owner))

	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := ps.Channel()
	go func() {
		for msg := range ch {
			ev, err := Decode([]byte(msg.Payload))
			if err != nil {
				f.log.Warn("dropping malformed change",
					logger.String("channel", msg.Channel),
					logger.Error(err))
				continue
			}
			// Only the owner's own changes are delivered.
			if ev.OwnerID() != owner {
				continue
			}
			h(ev)
		}
	}()

	return newSubscription(ctx, owner, func() {
		if err := ps.Close(); err != nil {
			f.log.Debug("failed to close pubsub", logger.Error(err))
		}
	}), nil
}
