package repos

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emberchat/emberchat-backend/internal/domain"
	"github.com/emberchat/emberchat-backend/internal/pkg/dbctx"
	pkgerrors "github.com/emberchat/emberchat-backend/internal/pkg/errors"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
)

type RoomRepo interface {
	Create(dbc dbctx.Context, room *domain.Room) (*domain.Room, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Room, error)
	// ExistsByName backs the best-effort room-name uniqueness check. It is a
	// plain read, not a transactional guard.
	ExistsByName(dbc dbctx.Context, name string) (bool, error)
	ListWithCounts(dbc dbctx.Context) ([]*domain.RoomView, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type roomRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoomRepo(db *gorm.DB, log *logger.Logger) RoomRepo {
	return &roomRepo{db: db, log: log.With("repo", "RoomRepo")}
}

func (r *roomRepo) Create(dbc dbctx.Context, room *domain.Room) (*domain.Room, error) {
	if room == nil {
		return nil, fmt.Errorf("missing room: %w", pkgerrors.ErrInvalidArgument)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(room).Error; err != nil {
		return nil, err
	}
	return room, nil
}

func (r *roomRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Room, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing room id: %w", pkgerrors.ErrInvalidArgument)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out domain.Room
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *roomRepo) ExistsByName(dbc dbctx.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.Room{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *roomRepo) ListWithCounts(dbc dbctx.Context) ([]*domain.RoomView, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.RoomView
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.Room{}).
		Select("rooms.id, rooms.name, rooms.description, rooms.created_by, rooms.created_at, COUNT(messages.id) AS message_count").
		Joins("LEFT JOIN messages ON messages.room_id = rooms.id").
		Group("rooms.id, rooms.name, rooms.description, rooms.created_by, rooms.created_at").
		Order("rooms.created_at DESC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.RoomView{}
	}
	return out, nil
}

func (r *roomRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing room id: %w", pkgerrors.ErrInvalidArgument)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	// Message rows cascade with the room.
	if err := txx.WithContext(dbc.Ctx).
		Where("room_id = ?", id).
		Delete(&domain.Message{}).Error; err != nil {
		return err
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&domain.Room{}).Error
}
