package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageType определяет типы фреймов
type MessageType string

const (
	// Системные типы
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
	TypeAck   MessageType = "ack"

	// Подписки
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypeSubscribed  MessageType = "subscribed"
	TypeEvent       MessageType = "event"

	// Команды клиента
	TypeChatSend        MessageType = "chat.send"
	TypeGroupSend       MessageType = "group.send"
	TypeVideoCallSignal MessageType = "video-call.signal"
	TypeVideoCallAccept MessageType = "video-call.accept"
	TypeVideoCallReject MessageType = "video-call.reject"
	TypeVideoCallEnd    MessageType = "video-call.end"
)

// Message - фрейм в обе стороны. Topic заполнен у subscribe/unsubscribe/event.
type Message struct {
	Type      MessageType     `json:"type"`
	Topic     string          `json:"topic,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	UserID    uuid.UUID       `json:"user_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
