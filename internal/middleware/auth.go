package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/thereayou/voxus/pkg/auth"
)

const (
	UserIDKey        = "userID"
	tokenIdentityKey = "tokenIdentity"
)

// AuthMiddleware проверяет JWT из заголовка Authorization
func AuthMiddleware(jwtManager *auth.JWTManager, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.Request)
		if err != nil {
			abortUnauthorized(c, "missing or invalid token")
			return
		}
		authenticate(c, jwtManager, redisClient, token)
	}
}

// WSAuthMiddleware - для WebSocket: браузер не умеет ставить заголовки при апгрейде,
// поэтому токен можно передать в ?token=
func WSAuthMiddleware(jwtManager *auth.JWTManager, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token, _ = auth.BearerToken(c.Request)
		}
		if token == "" {
			abortUnauthorized(c, "missing token")
			return
		}
		authenticate(c, jwtManager, redisClient, token)
	}
}

func authenticate(c *gin.Context, jwtManager *auth.JWTManager, redisClient *redis.Client, token string) {
	id, err := jwtManager.Parse(token)
	if err != nil {
		abortUnauthorized(c, "invalid token")
		return
	}

	// Проверяем, не отозван ли токен
	if redisClient != nil {
		exists, err := redisClient.Exists(c.Request.Context(), auth.RevokedKey(id.TokenID)).Result()
		if err != nil || exists > 0 {
			abortUnauthorized(c, "token is revoked")
			return
		}
	}

	c.Set(UserIDKey, id.UserID)
	c.Set(tokenIdentityKey, id)
	c.Next()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": msg})
}

// CurrentUser достает id пользователя, положенный AuthMiddleware
func CurrentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(UserIDKey).(uuid.UUID)
}

// TokenIdentity - проверенный токен текущего запроса, нужен для logout
func TokenIdentity(c *gin.Context) (*auth.Identity, bool) {
	v, ok := c.Get(tokenIdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*auth.Identity)
	return id, ok
}
