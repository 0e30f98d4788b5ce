package pubsub

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const channelPrefix = "topic:"

// RedisBroker публикует события в Redis и пересылает их в локальный хаб.
// Один экземпляр сервера подписан на все топики через PSUBSCRIBE.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := Encode(topic, payload)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelPrefix+topic, data).Err()
}

// Run читает шину до отмены ctx и отдает события в Deliverer
func (b *RedisBroker) Run(ctx context.Context, d Deliverer) error {
	sub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	log.Info().Str("pattern", channelPrefix+"*").Msg("redis fan-out subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			topic := strings.TrimPrefix(msg.Channel, channelPrefix)

			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil || evt.Topic != topic {
				log.Warn().Str("channel", msg.Channel).Msg("dropping malformed bus event")
				continue
			}

			d.Deliver(topic, []byte(msg.Payload))
		}
	}
}
