package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/models"
)

// Хранилище отдает gorm.ErrRecordNotFound для отсутствующих строк
// и gorm.ErrDuplicatedKey при нарушении уникальных индексов.

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindEnabledUserByPhone(ctx context.Context, phone string) (*models.User, error)
}

type ConversationStore interface {
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	FindConversationBetween(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	ListUserConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
}

type GroupStore interface {
	GetGroup(ctx context.Context, id uuid.UUID) (*models.GroupConversation, error)
	CreateGroup(ctx context.Context, group *models.GroupConversation, members []models.GroupMember) error
	DeleteGroup(ctx context.Context, id uuid.UUID) error
	GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error)
	AddMember(ctx context.Context, member *models.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
	ListUserGroups(ctx context.Context, userID uuid.UUID) ([]models.GroupConversation, error)
}

type MessageStore interface {
	SaveMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, target models.Target) ([]models.Message, error)
}

type FriendshipStore interface {
	GetFriendship(ctx context.Context, id uuid.UUID) (*models.Friendship, error)
	FindActiveFriendship(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error)
	CreateFriendship(ctx context.Context, f *models.Friendship) error
	UpdateFriendship(ctx context.Context, f *models.Friendship) error
	ListFriendships(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error)
	ListAcceptedFriendships(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error)
}

type CallStore interface {
	GetCall(ctx context.Context, id uuid.UUID) (*models.VideoCall, error)
	CreateCall(ctx context.Context, call *models.VideoCall) error
	UpdateCall(ctx context.Context, call *models.VideoCall) error
	FindActiveCallByUser(ctx context.Context, userID uuid.UUID) (*models.VideoCall, error)
	ListCallsByUser(ctx context.Context, userID uuid.UUID) ([]models.VideoCall, error)
}

// Store - все хранилища разом, его реализует database.Database
type Store interface {
	UserStore
	ConversationStore
	GroupStore
	MessageStore
	FriendshipStore
	CallStore
}

// BlobUploader - внешнее хранилище файлов
type BlobUploader interface {
	Upload(ctx context.Context, data []byte, logicalName string) (string, error)
	Delete(ctx context.Context, url string) error
}
