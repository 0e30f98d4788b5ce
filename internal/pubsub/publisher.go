package pubsub

import (
	"context"
	"encoding/json"
)

// Publisher - единственная возможность ядра: отправить payload в топик.
// Доставка best-effort, подтверждений от подписчиков нет.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Deliverer получает события из шины и раздает их локальным подписчикам
type Deliverer interface {
	Deliver(topic string, payload []byte)
}

// Event - то, что уходит в шину и получают клиенты
type Event struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

func Encode(topic string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Topic: topic, Payload: raw})
}

// PublisherFunc позволяет использовать функцию как Publisher
type PublisherFunc func(ctx context.Context, topic string, payload interface{}) error

func (f PublisherFunc) Publish(ctx context.Context, topic string, payload interface{}) error {
	return f(ctx, topic, payload)
}
