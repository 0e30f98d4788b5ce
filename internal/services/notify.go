package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/pubsub"
)

// publish отправляет событие в шину. Ошибка публикации не откатывает
// сохраненные данные, поэтому только логируется.
func publish(ctx context.Context, p pubsub.Publisher, topic string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, payload); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("publish failed")
	}
}
