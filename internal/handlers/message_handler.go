package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/handlers/dto"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/pubsub"
	"github.com/thereayou/voxus/internal/services"
	"github.com/thereayou/voxus/internal/websocket"
)

// MessageHandler исполняет команды, пришедшие по WebSocket,
// и решает, кому можно слушать общие топики
type MessageHandler struct {
	messages *services.MessageService
	calls    *services.CallService
}

var (
	_ websocket.ClientMessageHandler = (*MessageHandler)(nil)
	_ websocket.TopicAuthorizer      = (*MessageHandler)(nil)
)

func NewMessageHandler(messages *services.MessageService, calls *services.CallService) *MessageHandler {
	return &MessageHandler{messages: messages, calls: calls}
}

func (h *MessageHandler) HandleMessage(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeChatSend:
		var payload dto.ChatSendPayload
		if err := decodeFrame(msg, &payload); err != nil {
			return err
		}
		env, err := h.messages.SendText(ctx, models.DirectTarget(payload.ConversationID), client.UserID, payload.Content)
		if err != nil {
			return err
		}
		return client.Reply(msg, env)

	case websocket.TypeGroupSend:
		var payload dto.GroupSendPayload
		if err := decodeFrame(msg, &payload); err != nil {
			return err
		}
		env, err := h.messages.SendText(ctx, models.GroupTarget(payload.GroupID), client.UserID, payload.Content)
		if err != nil {
			return err
		}
		return client.Reply(msg, env)

	case websocket.TypeVideoCallSignal:
		var signal services.CallSignal
		if err := decodeFrame(msg, &signal); err != nil {
			return err
		}
		// отправитель берется из соединения, а не из фрейма
		signal.FromUserID = client.UserID
		if err := h.calls.HandleCallSignal(ctx, signal); err != nil {
			return err
		}
		return client.Reply(msg, nil)

	case websocket.TypeVideoCallAccept:
		return h.callAction(ctx, client, msg, h.calls.AcceptCall)

	case websocket.TypeVideoCallReject:
		return h.callAction(ctx, client, msg, h.calls.RejectCall)

	case websocket.TypeVideoCallEnd:
		return h.callAction(ctx, client, msg, h.calls.EndCall)
	}

	return fmt.Errorf("%w: unknown frame type %q", services.ErrInvalidArgument, msg.Type)
}

func (h *MessageHandler) callAction(ctx context.Context, client *websocket.Client, msg *websocket.Message,
	fn func(ctx context.Context, callID uuid.UUID) (*services.CallView, error)) error {
	var payload dto.CallActionPayload
	if err := decodeFrame(msg, &payload); err != nil {
		return err
	}

	if _, err := h.calls.GetCall(ctx, payload.CallID, client.UserID); err != nil {
		return err
	}

	call, err := fn(ctx, payload.CallID)
	if err != nil {
		return err
	}
	return client.Reply(msg, call)
}

// CanSubscribe пускает в chat/{id} только участников диалога,
// в group/{id} и group/{id}/member-removed - только участников группы
func (h *MessageHandler) CanSubscribe(ctx context.Context, userID uuid.UUID, topic string) error {
	prefix, id, ok := pubsub.ParseTopic(topic)
	if !ok {
		return fmt.Errorf("%w: unknown topic %s", services.ErrInvalidArgument, topic)
	}

	switch prefix {
	case "chat/":
		return h.messages.CanView(ctx, models.DirectTarget(id), userID)
	case "group/":
		return h.messages.CanView(ctx, models.GroupTarget(id), userID)
	}
	return fmt.Errorf("%w: topic %s", services.ErrForbidden, topic)
}

func decodeFrame(msg *websocket.Message, into interface{}) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("%w: %s frame has no data", services.ErrInvalidArgument, msg.Type)
	}
	if err := json.Unmarshal(msg.Data, into); err != nil {
		return fmt.Errorf("%w: %v", services.ErrInvalidArgument, err)
	}
	return nil
}
