package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/voxus/internal/handlers/dto"
	"github.com/thereayou/voxus/internal/middleware"
	"github.com/thereayou/voxus/internal/services"
)

type FriendshipHandler struct {
	friends *services.FriendshipService
}

func NewFriendshipHandler(friends *services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friends: friends}
}

func (h *FriendshipHandler) SendRequest(c *gin.Context) {
	var req dto.FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	f, err := h.friends.SendFriendRequest(c.Request.Context(), middleware.CurrentUser(c), req.AddresseeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, services.NewFriendshipView(f))
}

// Respond принимает {"action": "ACCEPT"|"REJECT"} от адресата заявки
func (h *FriendshipHandler) Respond(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	f, err := h.friends.RespondAs(c.Request.Context(), middleware.CurrentUser(c), id, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.NewFriendshipView(f))
}

func (h *FriendshipHandler) GetFriends(c *gin.Context) {
	friends, err := h.friends.GetFriends(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *FriendshipHandler) GetRequests(c *gin.Context) {
	list, err := h.friends.GetFriendships(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friendships": list})
}
