package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/voxus/internal/handlers/dto"
	"github.com/thereayou/voxus/internal/middleware"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/services"
)

type ConversationHandler struct {
	conversations *services.ConversationService
	messages      *services.MessageService
}

func NewConversationHandler(conversations *services.ConversationService, messages *services.MessageService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, messages: messages}
}

// CreateConversation находит или создает диалог с пользователем
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	conv, err := h.conversations.EnsureConversation(c.Request.Context(), middleware.CurrentUser(c), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.NewConversationView(conv))
}

func (h *ConversationHandler) GetMyConversations(c *gin.Context) {
	views, err := h.conversations.GetConversationsForUser(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": views})
}

func (h *ConversationHandler) GetConversation(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	conv, err := h.conversations.GetConversation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !conv.HasParticipant(middleware.CurrentUser(c)) {
		respondError(c, fmt.Errorf("%w: not a participant of the conversation", services.ErrForbidden))
		return
	}
	c.JSON(http.StatusOK, services.NewConversationView(conv))
}

// GetMessages - история диалога по возрастанию времени
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.messages.CanView(ctx, models.DirectTarget(id), middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}

	messages, err := h.messages.GetMessages(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage отправляет текст через HTTP (альтернатива WebSocket)
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.MessagePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	env, err := h.messages.SendText(c.Request.Context(), models.DirectTarget(id), middleware.CurrentUser(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, env)
}

// SendAttachment принимает multipart: file + type=IMAGE|FILE
func (h *ConversationHandler) SendAttachment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	sendAttachment(c, h.messages, models.DirectTarget(id))
}

func sendAttachment(c *gin.Context, messages *services.MessageService, target models.Target) {
	attachment, kind, err := readAttachment(c)
	if err != nil {
		respondError(c, err)
		return
	}

	env, err := messages.SendMessage(c.Request.Context(), services.SendMessageRequest{
		Target:     target,
		SenderID:   middleware.CurrentUser(c),
		Kind:       kind,
		Content:    c.PostForm("content"),
		Attachment: attachment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, env)
}
