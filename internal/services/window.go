package services

import (
	"github.com/google/uuid"

	"github.com/emberchat/emberchat-backend/internal/cache"
	"github.com/emberchat/emberchat-backend/internal/data/repos"
	"github.com/emberchat/emberchat-backend/internal/domain"
	"github.com/emberchat/emberchat-backend/internal/pkg/dbctx"
	"github.com/emberchat/emberchat-backend/internal/platform/gemini"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
)

// windowLimit is how many recent messages are handed to the generator as
// conversation context.
const windowLimit = 10

// WindowBuilder assembles the recent-history slice a generation call runs
// against. It reads the cached room message list when one is present but
// never populates the cache itself; on any cache trouble it falls back to
// the store.
type WindowBuilder struct {
	log      *logger.Logger
	aside    *cache.Aside
	messages repos.MessageRepo
	users    repos.UserRepo
}

func NewWindowBuilder(aside *cache.Aside, messages repos.MessageRepo, users repos.UserRepo, log *logger.Logger) *WindowBuilder {
	return &WindowBuilder{
		log:      log.With("service", "WindowBuilder"),
		aside:    aside,
		messages: messages,
		users:    users,
	}
}

// Build returns up to limit entries in ascending creation order.
func (b *WindowBuilder) Build(dbc dbctx.Context, roomID uuid.UUID, limit int) ([]gemini.HistoryEntry, error) {
	if limit <= 0 {
		limit = windowLimit
	}
	if views, ok := cache.Peek[[]*domain.MessageView](dbc.Ctx, b.aside, cache.RoomMessagesKey(roomID)); ok {
		if len(views) > limit {
			views = views[len(views)-limit:]
		}
		return entriesFromViews(views), nil
	}
	msgs, err := b.messages.ListRecent(dbc, roomID, limit)
	if err != nil {
		return nil, err
	}
	views, err := resolveMessageViews(dbc, b.users, msgs)
	if err != nil {
		return nil, err
	}
	return entriesFromViews(views), nil
}

func entriesFromViews(views []*domain.MessageView) []gemini.HistoryEntry {
	entries := make([]gemini.HistoryEntry, 0, len(views))
	for _, v := range views {
		entries = append(entries, gemini.HistoryEntry{Speaker: v.Username, Text: v.Content})
	}
	return entries
}
