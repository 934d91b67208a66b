package chatrespond

import (
	"context"
	"fmt"

	"github.com/emberchat/emberchat-backend/internal/domain"
	"github.com/emberchat/emberchat-backend/internal/pkg/dbctx"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
	"github.com/emberchat/emberchat-backend/internal/services"
)

type Activities struct {
	Log  *logger.Logger
	Chat services.ChatService
}

// Respond runs the deferred tail of the send pipeline. The user message is
// already durable; this call only adds the reply and drops the room's cache
// entries.
func (a *Activities) Respond(ctx context.Context, job domain.ReplyJob) (Result, error) {
	var out Result
	if a == nil || a.Chat == nil {
		return out, fmt.Errorf("chatrespond: activity not configured")
	}

	msg, err := a.Chat.Respond(dbctx.Context{Ctx: ctx}, job.RoomID, job.MessageBody)
	if err != nil {
		if a.Log != nil {
			a.Log.Error("Reply job failed", "room_id", job.RoomID, "user_message_id", job.UserMessageID, "error", err)
		}
		return out, err
	}
	out.ReplyMessageID = msg.ID
	out.Content = msg.Content
	return out, nil
}
