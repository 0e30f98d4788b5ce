package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/models"
	"gorm.io/gorm"
)

func (d *Database) GetGroup(ctx context.Context, id uuid.UUID) (*models.GroupConversation, error) {
	var group models.GroupConversation
	if err := d.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// CreateGroup создает группу вместе с участниками в одной транзакции
func (d *Database) CreateGroup(ctx context.Context, group *models.GroupConversation, members []models.GroupMember) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}

		for i := range members {
			members[i].GroupID = group.ID
			if err := tx.Omit("User").Create(&members[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteGroup удаляет сообщения, участников и саму группу (в таком порядке)
func (d *Database) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Message{}, "group_id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.GroupMember{}, "group_id = ?", id).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.GroupConversation{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (d *Database) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	var member models.GroupMember
	err := d.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// AddMember вставляет участника; повторная вставка упрется в idx_group_member
func (d *Database) AddMember(ctx context.Context, member *models.GroupMember) error {
	return d.db.WithContext(ctx).Omit("User").Create(member).Error
}

func (d *Database) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	res := d.db.WithContext(ctx).Delete(&models.GroupMember{}, "group_id = ? AND user_id = ?", groupID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (d *Database) ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := d.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Preload("User").
		Find(&members).Error
	return members, err
}

func (d *Database) ListUserGroups(ctx context.Context, userID uuid.UUID) ([]models.GroupConversation, error) {
	var groups []models.GroupConversation
	err := d.db.WithContext(ctx).
		Joins("JOIN group_members gm ON gm.group_id = group_conversations.id").
		Where("gm.user_id = ?", userID).
		Order("group_conversations.created_at DESC").
		Find(&groups).Error
	return groups, err
}
