package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/pubsub"
)

type friendshipDeps interface {
	UserStore
	FriendshipStore
}

type conversationEnsurer interface {
	EnsureConversation(ctx context.Context, userA, userB uuid.UUID) (*models.Conversation, error)
}

// FriendshipService ведет заявки в друзья: (нет) -> PENDING -> ACCEPTED | REJECTED.
// После REJECTED пара может создать новую заявку.
type FriendshipService struct {
	store         friendshipDeps
	conversations conversationEnsurer
	publisher     pubsub.Publisher
	now           func() time.Time
}

func NewFriendshipService(store friendshipDeps, conversations conversationEnsurer, publisher pubsub.Publisher) *FriendshipService {
	return &FriendshipService{
		store:         store,
		conversations: conversations,
		publisher:     publisher,
		now:           time.Now,
	}
}

func (s *FriendshipService) SendFriendRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.Friendship, error) {
	if requesterID == addresseeID {
		return nil, fmt.Errorf("%w: cannot send a friend request to yourself", ErrInvalidArgument)
	}

	requester, err := s.store.GetUser(ctx, requesterID)
	if err != nil {
		return nil, storeErr(err, "requester %s", requesterID)
	}
	if _, err := s.store.GetUser(ctx, addresseeID); err != nil {
		return nil, storeErr(err, "addressee %s", addresseeID)
	}

	// Проверка в обе стороны: active_pair не зависит от направления
	if _, err := s.store.FindActiveFriendship(ctx, requesterID, addresseeID); err == nil {
		return nil, fmt.Errorf("%w: a pending request or friendship already exists", ErrConflict)
	} else if !isNotFound(err) {
		return nil, storeErr(err, "friendship lookup")
	}

	f := &models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		CreatedAt:   s.now(),
	}
	f.SetStatus(models.FriendshipPending)

	if err := s.store.CreateFriendship(ctx, f); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: a pending request or friendship already exists", ErrConflict)
		}
		return nil, storeErr(err, "create friendship")
	}

	publish(ctx, s.publisher, pubsub.FriendRequestsTopic(addresseeID), FriendRequestNotification{
		FriendshipID: f.ID,
		FromUserID:   requester.ID,
		FromUserName: requester.Username,
		Status:       models.FriendshipPending,
	})

	return f, nil
}

// RespondToRequest принимает action ACCEPT или REJECT (без учета регистра)
func (s *FriendshipService) RespondToRequest(ctx context.Context, friendshipID uuid.UUID, action string) (*models.Friendship, error) {
	f, err := s.store.GetFriendship(ctx, friendshipID)
	if err != nil {
		return nil, storeErr(err, "friendship %s", friendshipID)
	}
	return s.respond(ctx, f, action)
}

// RespondAs - ответ от имени пользователя: отвечать может только адресат заявки
func (s *FriendshipService) RespondAs(ctx context.Context, responderID, friendshipID uuid.UUID, action string) (*models.Friendship, error) {
	f, err := s.store.GetFriendship(ctx, friendshipID)
	if err != nil {
		return nil, storeErr(err, "friendship %s", friendshipID)
	}
	if f.AddresseeID != responderID {
		return nil, fmt.Errorf("%w: only the addressee can answer a friend request", ErrForbidden)
	}
	return s.respond(ctx, f, action)
}

func (s *FriendshipService) respond(ctx context.Context, f *models.Friendship, action string) (*models.Friendship, error) {

	var status models.FriendshipStatus
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case "ACCEPT":
		status = models.FriendshipAccepted
	case "REJECT":
		status = models.FriendshipRejected
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, action)
	}

	// повторный ACCEPT доводит до конца создание диалога, если прошлый раз оно упало
	if f.Status == models.FriendshipAccepted && status == models.FriendshipAccepted {
		if _, err := s.conversations.EnsureConversation(ctx, f.RequesterID, f.AddresseeID); err != nil {
			return nil, err
		}
		return f, nil
	}
	if f.Status != models.FriendshipPending {
		return nil, fmt.Errorf("%w: request is already %s", ErrConflict, f.Status)
	}

	f.SetStatus(status)
	if err := s.store.UpdateFriendship(ctx, f); err != nil {
		return nil, storeErr(err, "update friendship")
	}

	requester, err := s.store.GetUser(ctx, f.RequesterID)
	if err != nil {
		return nil, storeErr(err, "requester %s", f.RequesterID)
	}

	notification := FriendRequestNotification{
		FriendshipID: f.ID,
		FromUserID:   requester.ID,
		FromUserName: requester.Username,
		Status:       f.Status,
	}
	publish(ctx, s.publisher, pubsub.FriendRequestsTopic(f.RequesterID), notification)
	publish(ctx, s.publisher, pubsub.FriendRequestsTopic(f.AddresseeID), notification)

	if f.Status == models.FriendshipAccepted {
		if _, err := s.conversations.EnsureConversation(ctx, f.RequesterID, f.AddresseeID); err != nil {
			return nil, err
		}
		log.Info().Str("friendship_id", f.ID.String()).Msg("friend request accepted")
	}

	return f, nil
}

// GetFriends - вторые стороны всех принятых заявок пользователя
func (s *FriendshipService) GetFriends(ctx context.Context, userID uuid.UUID) ([]UserView, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeErr(err, "user %s", userID)
	}

	accepted, err := s.store.ListAcceptedFriendships(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "list friends")
	}

	friends := make([]UserView, 0, len(accepted))
	for i := range accepted {
		friendID := accepted[i].Other(userID)
		u, err := s.store.GetUser(ctx, friendID)
		if err != nil {
			return nil, storeErr(err, "friend %s", friendID)
		}
		friends = append(friends, NewUserView(u))
	}
	return friends, nil
}

// GetFriendships - все заявки пользователя в любом статусе
func (s *FriendshipService) GetFriendships(ctx context.Context, userID uuid.UUID) ([]FriendshipView, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeErr(err, "user %s", userID)
	}

	list, err := s.store.ListFriendships(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "list friendships")
	}

	views := make([]FriendshipView, len(list))
	for i := range list {
		views[i] = NewFriendshipView(&list[i])
	}
	return views, nil
}

func (s *FriendshipService) SearchByPhone(ctx context.Context, phone string) (*UserView, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrInvalidArgument)
	}

	u, err := s.store.FindEnabledUserByPhone(ctx, phone)
	if err != nil {
		return nil, storeErr(err, "no enabled account with phone %s", phone)
	}

	view := NewUserView(u)
	return &view, nil
}
