package repos

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emberchat/emberchat-backend/internal/domain"
	"github.com/emberchat/emberchat-backend/internal/pkg/dbctx"
	pkgerrors "github.com/emberchat/emberchat-backend/internal/pkg/errors"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, msg *domain.Message) (*domain.Message, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Message, error)
	// ListRecent returns the most recent limit messages of a room in ascending
	// creation order (id as tiebreak).
	ListRecent(dbc dbctx.Context, roomID uuid.UUID, limit int) ([]*domain.Message, error)
	CountByRoom(dbc dbctx.Context, roomID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, msg *domain.Message) (*domain.Message, error) {
	if msg == nil {
		return nil, fmt.Errorf("missing message: %w", pkgerrors.ErrInvalidArgument)
	}
	if msg.RoomID == uuid.Nil {
		return nil, fmt.Errorf("missing room_id: %w", pkgerrors.ErrInvalidArgument)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *messageRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Message, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing message id: %w", pkgerrors.ErrInvalidArgument)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out domain.Message
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *messageRepo) ListRecent(dbc dbctx.Context, roomID uuid.UUID, limit int) ([]*domain.Message, error) {
	if roomID == uuid.Nil {
		return nil, fmt.Errorf("missing room_id: %w", pkgerrors.ErrInvalidArgument)
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.Message
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.Message{}).
		Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	// Normalize to ASC for callers.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *messageRepo) CountByRoom(dbc dbctx.Context, roomID uuid.UUID) (int64, error) {
	if roomID == uuid.Nil {
		return 0, fmt.Errorf("missing room_id: %w", pkgerrors.ErrInvalidArgument)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.Message{}).
		Where("room_id = ?", roomID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
