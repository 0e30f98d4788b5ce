package database

import (
	"context"

	"github.com/thereayou/voxus/internal/models"
)

func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	return d.db.WithContext(ctx).Create(message).Error
}

// ListMessages возвращает всю историю контекста, старые сообщения первыми
func (d *Database) ListMessages(ctx context.Context, target models.Target) ([]models.Message, error) {
	var messages []models.Message

	query := d.db.WithContext(ctx)
	if target.IsGroup() {
		query = query.Where("group_id = ?", target.ID())
	} else {
		query = query.Where("conversation_id = ?", target.ID())
	}

	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error

	return messages, err
}
