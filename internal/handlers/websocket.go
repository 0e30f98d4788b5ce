package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/middleware"
	ws "github.com/thereayou/voxus/internal/websocket"
)

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	hub            *ws.Hub
	messageHandler ws.ClientMessageHandler
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler создает handler; пустой allowedOrigins пропускает любой origin
func NewWebSocketHandler(hub *ws.Hub, messageHandler ws.ClientMessageHandler, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &WebSocketHandler{
		hub:            hub,
		messageHandler: messageHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// HandleWebSocket апгрейдит соединение и запускает pump-горутины клиента
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := middleware.CurrentUser(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.messageHandler)
}

// OnlineUsers - список пользователей с открытым соединением
func (h *WebSocketHandler) OnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.hub.GetOnlineUsers()})
}
