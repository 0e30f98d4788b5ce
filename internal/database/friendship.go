package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/models"
)

func (d *Database) GetFriendship(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	var f models.Friendship
	if err := d.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// FindActiveFriendship ищет не отклоненную заявку между парой в любом направлении
func (d *Database) FindActiveFriendship(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	var f models.Friendship
	if err := d.db.WithContext(ctx).First(&f, "active_pair = ?", models.PairKey(a, b)).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (d *Database) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	return d.db.WithContext(ctx).Create(f).Error
}

func (d *Database) UpdateFriendship(ctx context.Context, f *models.Friendship) error {
	return d.db.WithContext(ctx).Save(f).Error
}

func (d *Database) ListFriendships(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	var list []models.Friendship
	err := d.db.WithContext(ctx).
		Where("requester_id = ? OR addressee_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (d *Database) ListAcceptedFriendships(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	var list []models.Friendship
	err := d.db.WithContext(ctx).
		Where("status = ? AND (requester_id = ? OR addressee_id = ?)", models.FriendshipAccepted, userID, userID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
