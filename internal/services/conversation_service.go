package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/pubsub"
)

type conversationDeps interface {
	UserStore
	ConversationStore
}

// ConversationService находит или создает единственный диалог для пары пользователей
type ConversationService struct {
	store     conversationDeps
	publisher pubsub.Publisher
}

func NewConversationService(store conversationDeps, publisher pubsub.Publisher) *ConversationService {
	return &ConversationService{store: store, publisher: publisher}
}

// EnsureConversation идемпотентна: параллельные вызовы для (A,B) и (B,A)
// сходятся к одной строке благодаря уникальному pair_key
func (s *ConversationService) EnsureConversation(ctx context.Context, userA, userB uuid.UUID) (*models.Conversation, error) {
	if userA == userB {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", ErrInvalidArgument)
	}

	for _, id := range []uuid.UUID{userA, userB} {
		if _, err := s.store.GetUser(ctx, id); err != nil {
			return nil, storeErr(err, "user %s", id)
		}
	}

	conv, err := s.store.FindConversationBetween(ctx, userA, userB)
	if err == nil {
		return conv, nil
	}
	if !isNotFound(err) {
		return nil, storeErr(err, "conversation lookup")
	}

	conv = &models.Conversation{
		ParticipantA: userA,
		ParticipantB: userB,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		if !isDuplicate(err) {
			return nil, storeErr(err, "create conversation")
		}

		// Проиграли гонку: диалог уже создан параллельным запросом
		existing, findErr := s.store.FindConversationBetween(ctx, userA, userB)
		if findErr != nil {
			return nil, storeErr(findErr, "conversation lookup after conflict")
		}
		return existing, nil
	}

	log.Info().
		Str("conversation_id", conv.ID.String()).
		Str("user_a", userA.String()).
		Str("user_b", userB.String()).
		Msg("conversation created")

	view := NewConversationView(conv)
	publish(ctx, s.publisher, pubsub.ConversationsTopic(userA), view)
	publish(ctx, s.publisher, pubsub.ConversationsTopic(userB), view)

	return conv, nil
}

func (s *ConversationService) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, storeErr(err, "conversation %s", id)
	}
	return conv, nil
}

// GetConversationsForUser возвращает все диалоги с участием пользователя
func (s *ConversationService) GetConversationsForUser(ctx context.Context, userID uuid.UUID) ([]ConversationView, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeErr(err, "user %s", userID)
	}

	convs, err := s.store.ListUserConversations(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "list conversations")
	}

	views := make([]ConversationView, len(convs))
	for i := range convs {
		views[i] = NewConversationView(&convs[i])
	}
	return views, nil
}
