package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/handlers/dto"
	"github.com/thereayou/voxus/internal/middleware"
	"github.com/thereayou/voxus/internal/services"
)

type CallHandler struct {
	calls *services.CallService
}

func NewCallHandler(calls *services.CallService) *CallHandler {
	return &CallHandler{calls: calls}
}

func (h *CallHandler) InitiateCall(c *gin.Context) {
	var req dto.InitiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	call, err := h.calls.InitiateCall(c.Request.Context(), middleware.CurrentUser(c), req.CalleeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

func (h *CallHandler) GetCall(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	call, err := h.calls.GetCall(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h *CallHandler) AcceptCall(c *gin.Context) {
	h.transition(c, h.calls.AcceptCall)
}

func (h *CallHandler) RejectCall(c *gin.Context) {
	h.transition(c, h.calls.RejectCall)
}

func (h *CallHandler) EndCall(c *gin.Context) {
	h.transition(c, h.calls.EndCall)
}

// transition пускает к смене статуса только участников звонка
func (h *CallHandler) transition(c *gin.Context, fn func(ctx context.Context, callID uuid.UUID) (*services.CallView, error)) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.calls.GetCall(ctx, id, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}

	call, err := fn(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

// Signal - HTTP-вариант video-call.signal
func (h *CallHandler) Signal(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.CallSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	err := h.calls.HandleCallSignal(c.Request.Context(), services.CallSignal{
		CallID:     id,
		Type:       services.SignalType(req.Type),
		FromUserID: middleware.CurrentUser(c),
		ToUserID:   req.ToUserID,
		Data:       req.Data,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// GetActiveCall отдает null, если звонка нет
func (h *CallHandler) GetActiveCall(c *gin.Context) {
	call, err := h.calls.GetActiveCall(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"call": call})
}

func (h *CallHandler) GetHistory(c *gin.Context) {
	calls, err := h.calls.GetCallHistory(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}
