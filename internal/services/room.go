package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/emberchat/emberchat-backend/internal/cache"
	"github.com/emberchat/emberchat-backend/internal/data/repos"
	"github.com/emberchat/emberchat-backend/internal/domain"
	"github.com/emberchat/emberchat-backend/internal/pkg/dbctx"
	pkgerrors "github.com/emberchat/emberchat-backend/internal/pkg/errors"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
)

// roomPreviewLimit is how many recent messages a single-room read includes.
const roomPreviewLimit = 10

// RoomDetail is a room with its trailing messages, the shape of a
// single-room read.
type RoomDetail struct {
	Room     *domain.RoomView      `json:"room"`
	Messages []*domain.MessageView `json:"messages"`
}

type RoomList struct {
	Rooms []*domain.RoomView `json:"rooms"`
	Count int                `json:"count"`
}

type RoomService interface {
	CreateRoom(dbc dbctx.Context, name, description string, createdBy uuid.UUID) (*domain.RoomView, error)
	GetRoom(dbc dbctx.Context, roomID uuid.UUID) (*RoomDetail, error)
	ListRooms(dbc dbctx.Context) (*RoomList, error)
	DeleteRoom(dbc dbctx.Context, roomID uuid.UUID) error
}

type roomService struct {
	log      *logger.Logger
	aside    *cache.Aside
	rooms    repos.RoomRepo
	messages repos.MessageRepo
	users    repos.UserRepo
}

func NewRoomService(aside *cache.Aside, rooms repos.RoomRepo, messages repos.MessageRepo, users repos.UserRepo, log *logger.Logger) RoomService {
	return &roomService{
		log:      log.With("service", "RoomService"),
		aside:    aside,
		rooms:    rooms,
		messages: messages,
		users:    users,
	}
}

func (s *roomService) CreateRoom(dbc dbctx.Context, name, description string, createdBy uuid.UUID) (*domain.RoomView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty room name: %w", pkgerrors.ErrInvalidArgument)
	}
	// Best-effort uniqueness; the store has no unique constraint on names.
	exists, err := s.rooms.ExistsByName(dbc, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("room name already taken: %w", pkgerrors.ErrInvalidArgument)
	}
	room, err := s.rooms.Create(dbc, &domain.Room{
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return nil, err
	}
	s.aside.Invalidate(dbc.Ctx, cache.RoomListKey())
	return roomViewOf(room, 0), nil
}

func (s *roomService) GetRoom(dbc dbctx.Context, roomID uuid.UUID) (*RoomDetail, error) {
	if roomID == uuid.Nil {
		return nil, fmt.Errorf("missing room id: %w", pkgerrors.ErrInvalidArgument)
	}
	return cache.GetOrLoad(dbc.Ctx, s.aside, cache.RoomKey(roomID), func(context.Context) (*RoomDetail, error) {
		room, err := s.rooms.GetByID(dbc, roomID)
		if err != nil {
			return nil, err
		}
		count, err := s.messages.CountByRoom(dbc, roomID)
		if err != nil {
			return nil, err
		}
		msgs, err := s.messages.ListRecent(dbc, roomID, roomPreviewLimit)
		if err != nil {
			return nil, err
		}
		views, err := resolveMessageViews(dbc, s.users, msgs)
		if err != nil {
			return nil, err
		}
		return &RoomDetail{Room: roomViewOf(room, count), Messages: views}, nil
	})
}

func (s *roomService) ListRooms(dbc dbctx.Context) (*RoomList, error) {
	return cache.GetOrLoad(dbc.Ctx, s.aside, cache.RoomListKey(), func(context.Context) (*RoomList, error) {
		rooms, err := s.rooms.ListWithCounts(dbc)
		if err != nil {
			return nil, err
		}
		return &RoomList{Rooms: rooms, Count: len(rooms)}, nil
	})
}

func (s *roomService) DeleteRoom(dbc dbctx.Context, roomID uuid.UUID) error {
	if roomID == uuid.Nil {
		return fmt.Errorf("missing room id: %w", pkgerrors.ErrInvalidArgument)
	}
	if _, err := s.rooms.GetByID(dbc, roomID); err != nil {
		return err
	}
	if err := s.rooms.Delete(dbc, roomID); err != nil {
		return err
	}
	s.aside.Invalidate(dbc.Ctx, cache.RoomListKey(), cache.RoomKey(roomID), cache.RoomMessagesKey(roomID))
	return nil
}

func roomViewOf(room *domain.Room, count int64) *domain.RoomView {
	return &domain.RoomView{
		ID:           room.ID,
		Name:         room.Name,
		Description:  room.Description,
		CreatedBy:    room.CreatedBy,
		CreatedAt:    room.CreatedAt,
		MessageCount: count,
	}
}
