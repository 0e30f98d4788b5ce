package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
	FriendshipRejected FriendshipStatus = "REJECTED"
)

// Friendship - заявка в друзья. ActivePair равен PairKey пока заявка не отклонена,
// уникальный индекс по нему не дает создать вторую активную заявку для пары.
type Friendship struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequesterID uuid.UUID        `gorm:"type:uuid;not null;index"`
	AddresseeID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Status      FriendshipStatus `gorm:"not null;check:status IN ('PENDING','ACCEPTED','REJECTED')"`
	ActivePair  *string          `gorm:"uniqueIndex"`
	CreatedAt   time.Time
}

// SetStatus меняет статус и поддерживает ActivePair в согласованном состоянии
func (f *Friendship) SetStatus(status FriendshipStatus) {
	f.Status = status
	if status == FriendshipRejected {
		f.ActivePair = nil
		return
	}
	key := PairKey(f.RequesterID, f.AddresseeID)
	f.ActivePair = &key
}

// Other возвращает вторую сторону заявки
func (f *Friendship) Other(userID uuid.UUID) uuid.UUID {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}
