package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/voxus/internal/handlers/dto"
	"github.com/thereayou/voxus/internal/middleware"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/services"
)

type GroupHandler struct {
	groups   *services.GroupService
	messages *services.MessageService
}

func NewGroupHandler(groups *services.GroupService, messages *services.MessageService) *GroupHandler {
	return &GroupHandler{groups: groups, messages: messages}
}

// CreateGroup создает группу, текущий пользователь становится ADMIN
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), middleware.CurrentUser(c), req.Name, req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, services.NewGroupView(group))
}

func (h *GroupHandler) GetMyGroups(c *gin.Context) {
	groups, err := h.groups.GetGroupsForUser(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *GroupHandler) JoinGroup(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.groups.JoinGroup(c.Request.Context(), id, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "joined group successfully"})
}

// RemoveMember: участник может удалить себя, ADMIN - любого кроме создателя
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramUUID(c, "userId")
	if !ok {
		return
	}

	if err := h.groups.RemoveMember(c.Request.Context(), id, userID, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LeaveGroup - то же удаление, но для себя
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	me := middleware.CurrentUser(c)
	if err := h.groups.RemoveMember(c.Request.Context(), id, me, me); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.groups.DeleteGroup(c.Request.Context(), id, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMembers доступен только участникам группы
func (h *GroupHandler) GetMembers(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.messages.CanView(ctx, models.GroupTarget(id), middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}

	members, err := h.groups.GetGroupMembers(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *GroupHandler) GetMessages(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.messages.CanView(ctx, models.GroupTarget(id), middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}

	messages, err := h.messages.GetGroupMessages(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *GroupHandler) SendMessage(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.MessagePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	env, err := h.messages.SendText(c.Request.Context(), models.GroupTarget(id), middleware.CurrentUser(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, env)
}

func (h *GroupHandler) SendAttachment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	sendAttachment(c, h.messages, models.GroupTarget(id))
}
