package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/models"
)

func (d *Database) GetCall(ctx context.Context, id uuid.UUID) (*models.VideoCall, error) {
	var call models.VideoCall
	if err := d.db.WithContext(ctx).First(&call, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &call, nil
}

func (d *Database) CreateCall(ctx context.Context, call *models.VideoCall) error {
	return d.db.WithContext(ctx).Create(call).Error
}

func (d *Database) UpdateCall(ctx context.Context, call *models.VideoCall) error {
	return d.db.WithContext(ctx).Save(call).Error
}

// FindActiveCallByUser возвращает незавершенный звонок пользователя (самый свежий)
func (d *Database) FindActiveCallByUser(ctx context.Context, userID uuid.UUID) (*models.VideoCall, error) {
	var call models.VideoCall
	err := d.db.WithContext(ctx).
		Where("(caller_id = ? OR callee_id = ?) AND status IN ?", userID, userID, models.ActiveCallStatuses).
		Order("created_at DESC").
		First(&call).Error
	if err != nil {
		return nil, err
	}
	return &call, nil
}

func (d *Database) ListCallsByUser(ctx context.Context, userID uuid.UUID) ([]models.VideoCall, error) {
	var calls []models.VideoCall
	err := d.db.WithContext(ctx).
		Where("caller_id = ? OR callee_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&calls).Error
	return calls, err
}
