package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emberchat/emberchat-backend/internal/middleware"
	"github.com/emberchat/emberchat-backend/internal/pkg/dbctx"
	pkgerrors "github.com/emberchat/emberchat-backend/internal/pkg/errors"
	"github.com/emberchat/emberchat-backend/internal/services"
)

type RoomHandler struct {
	roomService services.RoomService
}

func NewRoomHandler(roomService services.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

type createRoomRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", pkgerrors.ErrUnauthorized)
		return
	}
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	view, err := h.roomService.CreateRoom(dbctx.Context{Ctx: c.Request.Context()}, req.Name, req.Description, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": view})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", pkgerrors.ErrInvalidArgument)
		return
	}
	detail, err := h.roomService.GetRoom(dbctx.Context{Ctx: c.Request.Context()}, roomID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, detail)
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	list, err := h.roomService.ListRooms(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, list)
}

func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", pkgerrors.ErrInvalidArgument)
		return
	}
	if err := h.roomService.DeleteRoom(dbctx.Context{Ctx: c.Request.Context()}, roomID); err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
