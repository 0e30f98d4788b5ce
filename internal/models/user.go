package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	FirstName    string
	LastName     string
	Email        string `gorm:"uniqueIndex;not null"`
	PhoneNumber  string `gorm:"index"`
	PasswordHash string `gorm:"not null"`
	AvatarURL    string
	Enabled      bool `gorm:"not null;default:true"`
	LastSeenAt   time.Time
	CreatedAt    time.Time
}

// DisplayName возвращает имя для отображения, username если имя не заполнено
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
