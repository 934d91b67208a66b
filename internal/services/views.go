package services

import (
	"github.com/google/uuid"

	"github.com/emberchat/emberchat-backend/internal/data/repos"
	"github.com/emberchat/emberchat-backend/internal/domain"
	"github.com/emberchat/emberchat-backend/internal/pkg/dbctx"
)

// resolveMessageViews attaches display usernames to a batch of messages.
// Messages without an author are AI replies and get the fixed AI label.
func resolveMessageViews(dbc dbctx.Context, users repos.UserRepo, msgs []*domain.Message) ([]*domain.MessageView, error) {
	ids := make([]uuid.UUID, 0, len(msgs))
	seen := make(map[uuid.UUID]struct{}, len(msgs))
	for _, m := range msgs {
		if m.UserID == nil {
			continue
		}
		if _, ok := seen[*m.UserID]; ok {
			continue
		}
		seen[*m.UserID] = struct{}{}
		ids = append(ids, *m.UserID)
	}
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) > 0 {
		authors, err := users.GetByIDs(dbc, ids)
		if err != nil {
			return nil, err
		}
		for _, u := range authors {
			names[u.ID] = u.Username
		}
	}
	views := make([]*domain.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView(m, names))
	}
	return views, nil
}

func messageView(m *domain.Message, names map[uuid.UUID]string) *domain.MessageView {
	username := domain.AIDisplayName
	if m.UserID != nil {
		if name, ok := names[*m.UserID]; ok {
			username = name
		} else {
			username = "User"
		}
	}
	return &domain.MessageView{
		ID:          m.ID,
		RoomID:      m.RoomID,
		UserID:      m.UserID,
		Username:    username,
		Content:     m.Content,
		MessageType: m.MessageType,
		CreatedAt:   m.CreatedAt,
	}
}
