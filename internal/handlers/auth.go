package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/thereayou/voxus/internal/handlers/dto"
	"github.com/thereayou/voxus/internal/middleware"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/services"
	"github.com/thereayou/voxus/pkg/auth"
)

// UserRepository - то, что нужно аутентификации и профилю от хранилища
type UserRepository interface {
	SaveUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastSeen(ctx context.Context, id uuid.UUID) error
}

type AuthHandler struct {
	users      UserRepository
	jwtManager *auth.JWTManager
	redis      *redis.Client
}

func NewAuthHandler(users UserRepository, jwtMgr *auth.JWTManager, rdb *redis.Client) *AuthHandler {
	return &AuthHandler{users: users, jwtManager: jwtMgr, redis: rdb}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(req.Email),
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hash),
		Enabled:      true,
		LastSeenAt:   now,
		CreatedAt:    now,
	}

	if err := h.users.SaveUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"code": services.CodeConflict, "error": "username or email already taken"})
			return
		}
		respondError(c, err)
		return
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user registered")

	resp, err := h.issue(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login выдаёт JWT и обновляет last_seen
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil || !user.Enabled {
		invalidCredentials(c)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		invalidCredentials(c)
		return
	}

	if err := h.users.UpdateLastSeen(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("last seen not updated")
	}

	resp, err := h.issue(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout отзывает текущий токен: jti лежит в Redis до истечения токена
func (h *AuthHandler) Logout(c *gin.Context) {
	id, ok := middleware.TokenIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "invalid token"})
		return
	}

	if h.redis == nil {
		respondError(c, services.ErrUnavailable)
		return
	}
	if err := h.redis.Set(c.Request.Context(), auth.RevokedKey(id.TokenID), 1, time.Until(id.ExpiresAt)).Err(); err != nil {
		respondError(c, errors.Join(services.ErrUnavailable, err))
		return
	}

	log.Info().Str("user_id", id.UserID.String()).Msg("token revoked")
	c.Status(http.StatusOK)
}

func (h *AuthHandler) issue(userID uuid.UUID) (*dto.RegisterResponse, error) {
	token, expiresAt, err := h.jwtManager.Issue(userID)
	if err != nil {
		return nil, err
	}
	return &dto.RegisterResponse{
		Uid:            userID.String(),
		Token:          token,
		TokenExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

func invalidCredentials(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "invalid credentials"})
}
