package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emberchat/emberchat-backend/internal/domain"
	"github.com/emberchat/emberchat-backend/internal/middleware"
	"github.com/emberchat/emberchat-backend/internal/pkg/dbctx"
	pkgerrors "github.com/emberchat/emberchat-backend/internal/pkg/errors"
	"github.com/emberchat/emberchat-backend/internal/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage handles POST /api/rooms/:id/messages, running the generation
// pipeline inline and returning both persisted messages.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	roomID, userID, req, ok := h.bindSend(c)
	if !ok {
		return
	}
	res, err := h.chatService.SendMessage(dbctx.Context{Ctx: c.Request.Context()}, roomID, userID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, res)
}

// SendMessageAsync handles POST /api/rooms/:id/messages/async, acknowledging
// the durable user message before the reply exists.
func (h *ChatHandler) SendMessageAsync(c *gin.Context) {
	roomID, userID, req, ok := h.bindSend(c)
	if !ok {
		return
	}
	res, err := h.chatService.SendMessageAsync(dbctx.Context{Ctx: c.Request.Context()}, roomID, userID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, res)
}

// ListMessages handles GET /api/rooms/:id/messages. The wire order is newest
// first.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", pkgerrors.ErrInvalidArgument)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if err := parsePositiveInt(raw, &limit); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_argument", err)
			return
		}
	}
	views, err := h.chatService.ListRoomMessages(dbctx.Context{Ctx: c.Request.Context()}, roomID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"messages": newestFirst(views), "count": len(views)})
}

func (h *ChatHandler) bindSend(c *gin.Context) (uuid.UUID, uuid.UUID, sendMessageRequest, bool) {
	var req sendMessageRequest
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", pkgerrors.ErrInvalidArgument)
		return uuid.Nil, uuid.Nil, req, false
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", pkgerrors.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return uuid.Nil, uuid.Nil, req, false
	}
	return roomID, userID, req, true
}

func parsePositiveInt(raw string, out *int) error {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fmt.Errorf("limit must be a positive integer: %w", pkgerrors.ErrInvalidArgument)
	}
	*out = n
	return nil
}

func newestFirst(views []*domain.MessageView) []*domain.MessageView {
	out := make([]*domain.MessageView, len(views))
	for i, v := range views {
		out[len(views)-1-i] = v
	}
	return out
}
