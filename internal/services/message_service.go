package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/pubsub"
)

type messageDeps interface {
	UserStore
	ConversationStore
	GroupStore
	MessageStore
}

// Attachment - содержимое IMAGE/FILE сообщения до загрузки
type Attachment struct {
	Data     []byte
	FileName string
}

type SendMessageRequest struct {
	Target     models.Target
	SenderID   uuid.UUID
	Kind       models.MessageKind
	Content    string
	Attachment *Attachment
}

// MessageService проверяет отправителя, сохраняет сообщение ровно один раз
// и публикует его в единственный топик контекста
type MessageService struct {
	store     messageDeps
	uploader  BlobUploader
	publisher pubsub.Publisher
	now       func() time.Time
}

func NewMessageService(store messageDeps, uploader BlobUploader, publisher pubsub.Publisher) *MessageService {
	return &MessageService{store: store, uploader: uploader, publisher: publisher, now: time.Now}
}

func (s *MessageService) SendMessage(ctx context.Context, req SendMessageRequest) (*MessageEnvelope, error) {
	if !req.Target.Valid() {
		return nil, fmt.Errorf("%w: message target is required", ErrInvalidArgument)
	}
	if req.Kind == "" {
		req.Kind = models.KindText
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrInvalidArgument, req.Kind)
	}
	if req.Kind == models.KindText && strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: message content is empty", ErrInvalidArgument)
	}
	if req.Kind.HasMedia() && (req.Attachment == nil || len(req.Attachment.Data) == 0) {
		return nil, fmt.Errorf("%w: %s message requires an attachment", ErrInvalidArgument, req.Kind)
	}

	if err := s.authorize(ctx, req.Target, req.SenderID); err != nil {
		return nil, err
	}

	message := &models.Message{
		SenderID: req.SenderID,
		Content:  req.Content,
		Type:     req.Kind,
	}
	message.SetTarget(req.Target)

	if req.Kind.HasMedia() {
		if err := s.upload(ctx, req, message); err != nil {
			return nil, err
		}
	}

	message.CreatedAt = s.now()
	if err := s.store.SaveMessage(ctx, message); err != nil {
		if message.MediaURL != "" && s.uploader != nil {
			if delErr := s.uploader.Delete(ctx, message.MediaURL); delErr != nil {
				log.Warn().Err(delErr).Str("url", message.MediaURL).Msg("orphan attachment not deleted")
			}
		}
		return nil, storeErr(err, "save message")
	}

	envelope := NewMessageEnvelope(message)
	publish(ctx, s.publisher, topicFor(req.Target), envelope)

	return &envelope, nil
}

// SendText - короткий путь для текстовых сообщений
func (s *MessageService) SendText(ctx context.Context, target models.Target, senderID uuid.UUID, content string) (*MessageEnvelope, error) {
	return s.SendMessage(ctx, SendMessageRequest{
		Target:   target,
		SenderID: senderID,
		Kind:     models.KindText,
		Content:  content,
	})
}

func (s *MessageService) GetMessages(ctx context.Context, conversationID uuid.UUID) ([]MessageEnvelope, error) {
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return nil, storeErr(err, "conversation %s", conversationID)
	}
	return s.history(ctx, models.DirectTarget(conversationID))
}

func (s *MessageService) GetGroupMessages(ctx context.Context, groupID uuid.UUID) ([]MessageEnvelope, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, storeErr(err, "group %s", groupID)
	}
	return s.history(ctx, models.GroupTarget(groupID))
}

// CanView проверяет, что пользователь может читать историю контекста
func (s *MessageService) CanView(ctx context.Context, target models.Target, userID uuid.UUID) error {
	return s.checkAccess(ctx, target, userID)
}

func (s *MessageService) history(ctx context.Context, target models.Target) ([]MessageEnvelope, error) {
	messages, err := s.store.ListMessages(ctx, target)
	if err != nil {
		return nil, storeErr(err, "list messages")
	}

	envelopes := make([]MessageEnvelope, len(messages))
	for i := range messages {
		envelopes[i] = NewMessageEnvelope(&messages[i])
	}
	return envelopes, nil
}

func (s *MessageService) authorize(ctx context.Context, target models.Target, senderID uuid.UUID) error {
	if _, err := s.store.GetUser(ctx, senderID); err != nil {
		return storeErr(err, "sender %s", senderID)
	}
	return s.checkAccess(ctx, target, senderID)
}

func (s *MessageService) checkAccess(ctx context.Context, target models.Target, userID uuid.UUID) error {
	if target.IsGroup() {
		if _, err := s.store.GetGroup(ctx, target.ID()); err != nil {
			return storeErr(err, "group %s", target.ID())
		}

		member, err := s.store.GetMembership(ctx, target.ID(), userID)
		if err != nil && !isNotFound(err) {
			return storeErr(err, "membership lookup")
		}
		return CanPostToGroup(member)
	}

	conv, err := s.store.GetConversation(ctx, target.ID())
	if err != nil {
		return storeErr(err, "conversation %s", target.ID())
	}
	return CanPostToConversation(conv.HasParticipant(userID))
}

func (s *MessageService) upload(ctx context.Context, req SendMessageRequest, message *models.Message) error {
	if s.uploader == nil {
		return fmt.Errorf("%w: attachments are not configured", ErrUploadFailed)
	}

	mtype := mimetype.Detect(req.Attachment.Data)
	if req.Kind == models.KindImage && !strings.HasPrefix(mtype.String(), "image/") {
		return fmt.Errorf("%w: attachment is not an image (%s)", ErrInvalidArgument, mtype.String())
	}

	prefix := "chat_"
	if req.Target.IsGroup() {
		prefix = "group_chat_"
	}
	if req.Kind == models.KindFile {
		prefix = strings.TrimSuffix(prefix, "chat_") + "file_"
	}
	logicalName := prefix + uuid.NewString() + mtype.Extension()

	url, err := s.uploader.Upload(ctx, req.Attachment.Data, logicalName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	message.MediaURL = url
	if req.Kind == models.KindFile {
		size := int64(len(req.Attachment.Data))
		message.FileName = req.Attachment.FileName
		message.FileSize = &size
	}
	return nil
}

func topicFor(target models.Target) string {
	if target.IsGroup() {
		return pubsub.GroupTopic(target.ID())
	}
	return pubsub.ChatTopic(target.ID())
}
