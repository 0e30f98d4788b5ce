package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/models"
)

func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	return d.db.WithContext(ctx).Create(user).Error
}

func (d *Database) UpdateUser(ctx context.Context, user *models.User) error {
	return d.db.WithContext(ctx).Save(user).Error
}

func (d *Database) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindEnabledUserByPhone ищет активный аккаунт по номеру телефона
func (d *Database) FindEnabledUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	user := models.User{}
	err := d.db.WithContext(ctx).
		Where("phone_number = ? AND enabled = ?", phone, true).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) UpdateLastSeen(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_seen_at", time.Now()).Error
}
