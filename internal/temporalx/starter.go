package temporalx

import (
	"context"
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/emberchat/emberchat-backend/internal/domain"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
	"github.com/emberchat/emberchat-backend/internal/temporalx/chatrespond"
)

// ReplyStarter schedules reply-generation workflows. It satisfies the chat
// service's enqueuer interface.
type ReplyStarter struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	taskQueue string
}

func NewReplyStarter(tc temporalsdkclient.Client, log *logger.Logger) (*ReplyStarter, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	return &ReplyStarter{
		log:       log.With("component", "ReplyStarter"),
		tc:        tc,
		taskQueue: LoadConfig().TaskQueue,
	}, nil
}

func (s *ReplyStarter) StartReply(ctx context.Context, job domain.ReplyJob) (string, error) {
	// One workflow per (room, user message): re-sends of the same message
	// while a run is in flight dedupe on the workflow ID.
	wid := fmt.Sprintf("chat-respond-%s-%s", job.RoomID, job.UserMessageID)
	run, err := s.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:        wid,
		TaskQueue: s.taskQueue,
	}, chatrespond.WorkflowName, job)
	if err != nil {
		return "", fmt.Errorf("start reply workflow: %w", err)
	}
	s.log.Info("Reply job scheduled", "workflow_id", wid, "run_id", run.GetRunID())
	return wid, nil
}
