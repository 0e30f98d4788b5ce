package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	KindText  MessageKind = "TEXT"
	KindImage MessageKind = "IMAGE"
	KindFile  MessageKind = "FILE"
)

func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindFile:
		return true
	}
	return false
}

// HasMedia сообщает, требует ли тип загрузки вложения
func (k MessageKind) HasMedia() bool {
	return k == KindImage || k == KindFile
}

// Message принадлежит ровно одному контексту: диалогу или группе.
// Колонки ConversationID/GroupID заполняются только через SetTarget.
type Message struct {
	ID             uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID *uuid.UUID  `gorm:"type:uuid;index"`
	GroupID        *uuid.UUID  `gorm:"type:uuid;index;check:chk_message_target,(conversation_id IS NULL) <> (group_id IS NULL)"`
	SenderID       uuid.UUID   `gorm:"type:uuid;not null"`
	Content        string      `gorm:"type:text;not null;default:''"`
	Type           MessageKind `gorm:"not null;default:'TEXT'"`
	MediaURL       string
	FileName       string
	FileSize       *int64
	CreatedAt      time.Time
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) SetTarget(t Target) {
	id := t.ID()
	m.ConversationID, m.GroupID = nil, nil
	if t.IsGroup() {
		m.GroupID = &id
	} else {
		m.ConversationID = &id
	}
}

func (m *Message) Target() Target {
	if m.GroupID != nil {
		return GroupTarget(*m.GroupID)
	}
	if m.ConversationID != nil {
		return DirectTarget(*m.ConversationID)
	}
	return Target{}
}
