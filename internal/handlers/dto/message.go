package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// MessagePayload - текстовое сообщение по HTTP
type MessagePayload struct {
	Content string `json:"content" binding:"required"`
}

type CreateConversationRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type CreateGroupRequest struct {
	Name      string      `json:"name" binding:"required,max=100"`
	MemberIDs []uuid.UUID `json:"member_ids"`
}

type FriendRequest struct {
	AddresseeID uuid.UUID `json:"addressee_id" binding:"required"`
}

type RespondRequest struct {
	Action string `json:"action" binding:"required"`
}

type InitiateCallRequest struct {
	CalleeID uuid.UUID `json:"callee_id" binding:"required"`
}

type CallSignalRequest struct {
	Type     string          `json:"type" binding:"required"`
	ToUserID uuid.UUID       `json:"to_user_id" binding:"required"`
	Data     json.RawMessage `json:"data"`
}

// Данные WebSocket-команд

type ChatSendPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Content        string    `json:"content"`
}

type GroupSendPayload struct {
	GroupID uuid.UUID `json:"group_id"`
	Content string    `json:"content"`
}

type CallActionPayload struct {
	CallID uuid.UUID `json:"call_id"`
}
