package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/models"
)

func (d *Database) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	if err := d.db.WithContext(ctx).First(&conv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindConversationBetween ищет диалог по неупорядоченной паре пользователей
func (d *Database) FindConversationBetween(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	if err := d.db.WithContext(ctx).First(&conv, "pair_key = ?", models.PairKey(a, b)).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateConversation вставляет диалог; при гонке уникальный индекс по pair_key
// вернет gorm.ErrDuplicatedKey
func (d *Database) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	conv.PairKey = models.PairKey(conv.ParticipantA, conv.ParticipantB)
	return d.db.WithContext(ctx).Create(conv).Error
}

func (d *Database) ListUserConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := d.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("created_at DESC").
		Find(&convs).Error
	return convs, err
}
