package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/handlers/dto"
	"github.com/thereayou/voxus/internal/middleware"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/services"
)

// Presence отвечает, есть ли у пользователя открытое WebSocket-соединение
type Presence interface {
	IsOnline(userID uuid.UUID) bool
}

type UserHandler struct {
	users    UserRepository
	friends  *services.FriendshipService
	presence Presence
}

func NewUserHandler(users UserRepository, friends *services.FriendshipService, presence Presence) *UserHandler {
	return &UserHandler{users: users, friends: friends, presence: presence}
}

// GetMe возвращает информацию о текущем пользователе
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, services.FromStore(err, "user"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"first_name":   user.FirstName,
		"last_name":    user.LastName,
		"email":        user.Email,
		"phone_number": user.PhoneNumber,
		"avatar_url":   user.AvatarURL,
		"created_at":   user.CreatedAt,
		"last_seen_at": user.LastSeenAt,
	})
}

// UpdateMe обновляет только переданные поля профиля
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetUser(ctx, middleware.CurrentUser(c))
	if err != nil {
		respondError(c, services.FromStore(err, "user"))
		return
	}

	applyProfile(user, req)

	if err := h.users.UpdateUser(ctx, user); err != nil {
		respondError(c, services.FromStore(err, "update user"))
		return
	}

	c.JSON(http.StatusOK, services.NewUserView(user))
}

func applyProfile(user *models.User, req dto.UpdateProfileRequest) {
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
}

// GetUser возвращает публичный профиль по ID
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, services.FromStore(err, "user"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         services.NewUserView(user),
		"last_seen_at": user.LastSeenAt,
		"is_online":    h.presence != nil && h.presence.IsOnline(user.ID),
	})
}

// SearchByPhone ищет активный аккаунт по номеру телефона
func (h *UserHandler) SearchByPhone(c *gin.Context) {
	user, err := h.friends.SearchByPhone(c.Request.Context(), c.Query("phone"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
