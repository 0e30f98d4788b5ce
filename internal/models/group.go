package models

import (
	"time"

	"github.com/google/uuid"
)

type GroupRole string

const (
	RoleAdmin  GroupRole = "ADMIN"
	RoleMember GroupRole = "MEMBER"
)

type GroupConversation struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"not null"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}

// GroupMember - участие пользователя в группе, одна строка на пару (group, user)
type GroupMember struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GroupID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member;index"`
	Role     GroupRole `gorm:"not null;check:role IN ('ADMIN','MEMBER')"`
	JoinedAt time.Time

	// Связи
	User User `gorm:"foreignKey:UserID"`
}
