package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation - личный диалог двух пользователей.
// PairKey не зависит от порядка участников и уникален.
type Conversation struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ParticipantA uuid.UUID `gorm:"type:uuid;not null;index"`
	ParticipantB uuid.UUID `gorm:"type:uuid;not null;index"`
	PairKey      string    `gorm:"uniqueIndex;not null"`
	CreatedAt    time.Time
}

// PairKey строит канонический ключ неупорядоченной пары пользователей
func PairKey(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if bs < as {
		as, bs = bs, as
	}
	return as + ":" + bs
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Peer возвращает второго участника диалога
func (c *Conversation) Peer(userID uuid.UUID) uuid.UUID {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}
