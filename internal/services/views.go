package services

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/models"
)

type UserView struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
}

func NewUserView(u *models.User) UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName(),
		AvatarURL:   u.AvatarURL,
		PhoneNumber: u.PhoneNumber,
	}
}

type ConversationView struct {
	ID             uuid.UUID `json:"id"`
	Participant1ID uuid.UUID `json:"participant1_id"`
	Participant2ID uuid.UUID `json:"participant2_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewConversationView(c *models.Conversation) ConversationView {
	return ConversationView{
		ID:             c.ID,
		Participant1ID: c.ParticipantA,
		Participant2ID: c.ParticipantB,
		CreatedAt:      c.CreatedAt,
	}
}

type GroupView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func NewGroupView(g *models.GroupConversation) GroupView {
	return GroupView{ID: g.ID, Name: g.Name, CreatedBy: g.CreatedBy, CreatedAt: g.CreatedAt}
}

type MemberView struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Username  string           `json:"username"`
	AvatarURL string           `json:"avatar_url,omitempty"`
	Role      models.GroupRole `json:"role"`
	JoinedAt  time.Time        `json:"joined_at"`
}

// Типы системных уведомлений групп
const (
	NoticeMemberJoined = "member-joined"
	NoticeGroupDeleted = "group-deleted"
)

// GroupNotice - системное уведомление в топик группы
type GroupNotice struct {
	Type    string    `json:"type"`
	GroupID uuid.UUID `json:"group_id"`
	UserID  uuid.UUID `json:"user_id"`
	Message string    `json:"message"`
}

type MemberRemovedNotice struct {
	GroupID uuid.UUID `json:"group_id"`
	UserID  uuid.UUID `json:"user_id"`
	Message string    `json:"message"`
}

type GroupDeletedNotice struct {
	Type      string    `json:"type"`
	GroupID   uuid.UUID `json:"group_id"`
	GroupName string    `json:"group_name"`
	Message   string    `json:"message"`
}

// MessageEnvelope - опубликованное представление сохраненного сообщения
type MessageEnvelope struct {
	ID             uuid.UUID          `json:"id"`
	ConversationID *uuid.UUID         `json:"conversation_id,omitempty"`
	GroupID        *uuid.UUID         `json:"group_id,omitempty"`
	SenderID       uuid.UUID          `json:"sender_id"`
	Content        string             `json:"content"`
	Type           models.MessageKind `json:"type"`
	MediaURL       string             `json:"media_url,omitempty"`
	FileName       string             `json:"file_name,omitempty"`
	FileSize       *int64             `json:"file_size,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

func NewMessageEnvelope(m *models.Message) MessageEnvelope {
	return MessageEnvelope{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		GroupID:        m.GroupID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Type:           m.Type,
		MediaURL:       m.MediaURL,
		FileName:       m.FileName,
		FileSize:       m.FileSize,
		CreatedAt:      m.CreatedAt,
	}
}

type FriendRequestNotification struct {
	FriendshipID uuid.UUID               `json:"friendship_id"`
	FromUserID   uuid.UUID               `json:"from_user_id"`
	FromUserName string                  `json:"from_user_name"`
	Status       models.FriendshipStatus `json:"status"`
}

type FriendshipView struct {
	ID          uuid.UUID               `json:"id"`
	RequesterID uuid.UUID               `json:"requester_id"`
	AddresseeID uuid.UUID               `json:"addressee_id"`
	Status      models.FriendshipStatus `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
}

func NewFriendshipView(f *models.Friendship) FriendshipView {
	return FriendshipView{
		ID:          f.ID,
		RequesterID: f.RequesterID,
		AddresseeID: f.AddresseeID,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
	}
}

type CallView struct {
	ID              uuid.UUID         `json:"id"`
	CallerID        uuid.UUID         `json:"caller_id"`
	CallerName      string            `json:"caller_name"`
	CallerAvatar    string            `json:"caller_avatar,omitempty"`
	CalleeID        uuid.UUID         `json:"callee_id"`
	CalleeName      string            `json:"callee_name"`
	CalleeAvatar    string            `json:"callee_avatar,omitempty"`
	Status          models.CallStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	StartedAt       *time.Time        `json:"started_at,omitempty"`
	EndedAt         *time.Time        `json:"ended_at,omitempty"`
	DurationSeconds *int64            `json:"duration_seconds,omitempty"`
}

type SignalType string

const (
	SignalOffer        SignalType = "CALL_OFFER"
	SignalAnswer       SignalType = "CALL_ANSWER"
	SignalICECandidate SignalType = "ICE_CANDIDATE"
	SignalAccept       SignalType = "CALL_ACCEPT"
	SignalReject       SignalType = "CALL_REJECT"
	SignalEnd          SignalType = "CALL_END"
)

// CallSignal пересылается пиру как есть; Data (SDP, ICE) ядро не разбирает
type CallSignal struct {
	CallID     uuid.UUID       `json:"call_id" validate:"required"`
	Type       SignalType      `json:"type" validate:"required,oneof=CALL_OFFER CALL_ANSWER ICE_CANDIDATE CALL_ACCEPT CALL_REJECT CALL_END"`
	FromUserID uuid.UUID       `json:"from_user_id"`
	ToUserID   uuid.UUID       `json:"to_user_id" validate:"required"`
	Data       json.RawMessage `json:"data,omitempty"`
}
