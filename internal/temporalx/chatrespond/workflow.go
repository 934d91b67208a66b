package chatrespond

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/emberchat/emberchat-backend/internal/domain"
)

// Workflow generates and persists one reply for an already-durable user
// message. The generator never errors upward, so a failed activity here means
// the store rejected the reply write; one retry covers transient outages.
func Workflow(ctx workflow.Context, job domain.ReplyJob) (Result, error) {
	var out Result
	if job.RoomID == uuid.Nil || job.UserMessageID == uuid.Nil {
		return out, fmt.Errorf("chatrespond: missing room_id or user_message_id")
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 2,
		},
	})

	if err := workflow.ExecuteActivity(ctx, ActivityRespond, job).Get(ctx, &out); err != nil {
		return out, err
	}
	return out, nil
}
