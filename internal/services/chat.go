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
	"github.com/emberchat/emberchat-backend/internal/platform/gemini"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
)

// displayLimit is the default page size for room history reads and the size
// of the cached message window.
const displayLimit = 50

// ReplyEnqueuer hands a reply-generation job to the task queue. StartReply
// returns an identifier for the scheduled run.
type ReplyEnqueuer interface {
	StartReply(ctx context.Context, job domain.ReplyJob) (string, error)
}

// SendResult is the outcome of a synchronous send. AIMessage is nil when the
// reply could not be persisted; the user message is durable either way.
type SendResult struct {
	UserMessage *domain.MessageView `json:"user_message"`
	AIMessage   *domain.MessageView `json:"ai_message,omitempty"`
}

// AsyncSendResult acknowledges an offloaded send before the reply exists.
type AsyncSendResult struct {
	UserMessage *domain.MessageView `json:"user_message"`
	JobID       string              `json:"job_id"`
}

type ChatService interface {
	// SendMessage runs the full pipeline inline: persist the user message,
	// generate a reply against the recent window, persist it, and drop the
	// room's cache entries.
	SendMessage(dbc dbctx.Context, roomID uuid.UUID, authorID uuid.UUID, body string) (*SendResult, error)

	// SendMessageAsync persists the user message and schedules the rest of
	// the pipeline on the task queue.
	SendMessageAsync(dbc dbctx.Context, roomID uuid.UUID, authorID uuid.UUID, body string) (*AsyncSendResult, error)

	// Respond is the deferred tail of the pipeline, also invoked by queue
	// workers: window, generate, persist the reply, invalidate.
	Respond(dbc dbctx.Context, roomID uuid.UUID, body string) (*domain.Message, error)

	ListRoomMessages(dbc dbctx.Context, roomID uuid.UUID, limit int) ([]*domain.MessageView, error)
}

type chatService struct {
	log      *logger.Logger
	aside    *cache.Aside
	rooms    repos.RoomRepo
	messages repos.MessageRepo
	users    repos.UserRepo
	window   *WindowBuilder
	gen      gemini.Client
	queue    ReplyEnqueuer
}

// NewChatService wires the message pipeline. queue may be nil; async sends
// then fail with ErrUnavailable.
func NewChatService(
	aside *cache.Aside,
	rooms repos.RoomRepo,
	messages repos.MessageRepo,
	users repos.UserRepo,
	window *WindowBuilder,
	gen gemini.Client,
	queue ReplyEnqueuer,
	log *logger.Logger,
) ChatService {
	return &chatService{
		log:      log.With("service", "ChatService"),
		aside:    aside,
		rooms:    rooms,
		messages: messages,
		users:    users,
		window:   window,
		gen:      gen,
		queue:    queue,
	}
}

func (s *chatService) SendMessage(dbc dbctx.Context, roomID uuid.UUID, authorID uuid.UUID, body string) (*SendResult, error) {
	userMsg, err := s.persistUserMessage(dbc, roomID, authorID, body)
	if err != nil {
		return nil, err
	}
	aiMsg, err := s.Respond(dbc, roomID, body)
	if err != nil {
		// The user message is already durable; surface it without a reply.
		s.log.Error("reply persistence failed", "room_id", roomID, "error", err)
		aiMsg = nil
	}
	result := &SendResult{UserMessage: s.viewOf(dbc, userMsg)}
	if aiMsg != nil {
		result.AIMessage = s.viewOf(dbc, aiMsg)
	}
	return result, nil
}

func (s *chatService) SendMessageAsync(dbc dbctx.Context, roomID uuid.UUID, authorID uuid.UUID, body string) (*AsyncSendResult, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("task queue not configured: %w", pkgerrors.ErrUnavailable)
	}
	userMsg, err := s.persistUserMessage(dbc, roomID, authorID, body)
	if err != nil {
		return nil, err
	}
	jobID, err := s.queue.StartReply(dbc.Ctx, domain.ReplyJob{
		RoomID:        roomID,
		UserMessageID: userMsg.ID,
		MessageBody:   body,
		AuthorID:      userMsg.UserID,
	})
	if err != nil {
		// Durable but unanswered; the caller can fall back to the sync path.
		s.log.Error("reply job enqueue failed", "room_id", roomID, "user_message_id", userMsg.ID, "error", err)
		return nil, fmt.Errorf("enqueue reply job: %w", pkgerrors.ErrUnavailable)
	}
	return &AsyncSendResult{UserMessage: s.viewOf(dbc, userMsg), JobID: jobID}, nil
}

func (s *chatService) Respond(dbc dbctx.Context, roomID uuid.UUID, body string) (*domain.Message, error) {
	window, err := s.window.Build(dbc, roomID, windowLimit)
	if err != nil {
		s.log.Warn("window build failed, generating without history", "room_id", roomID, "error", err)
		window = nil
	}
	reply := s.gen.Generate(dbc.Ctx, body, window)

	aiMsg := &domain.Message{
		RoomID:      roomID,
		Content:     reply,
		MessageType: domain.MessageTypeAI,
	}
	aiMsg, persistErr := s.messages.Create(dbc, aiMsg)

	// The user message from earlier in the pipeline is durable even when the
	// reply write fails, so the room's entries are stale either way.
	s.invalidateRoom(dbc.Ctx, roomID)

	if persistErr != nil {
		return nil, fmt.Errorf("persist reply: %w", persistErr)
	}
	return aiMsg, nil
}

func (s *chatService) ListRoomMessages(dbc dbctx.Context, roomID uuid.UUID, limit int) ([]*domain.MessageView, error) {
	if _, err := s.rooms.GetByID(dbc, roomID); err != nil {
		return nil, err
	}
	if limit > 0 && limit != displayLimit {
		// Only the default window is cached.
		return s.loadMessages(dbc, roomID, limit)
	}
	return cache.GetOrLoad(dbc.Ctx, s.aside, cache.RoomMessagesKey(roomID), func(context.Context) ([]*domain.MessageView, error) {
		return s.loadMessages(dbc, roomID, displayLimit)
	})
}

func (s *chatService) loadMessages(dbc dbctx.Context, roomID uuid.UUID, limit int) ([]*domain.MessageView, error) {
	msgs, err := s.messages.ListRecent(dbc, roomID, limit)
	if err != nil {
		return nil, err
	}
	return resolveMessageViews(dbc, s.users, msgs)
}

func (s *chatService) persistUserMessage(dbc dbctx.Context, roomID uuid.UUID, authorID uuid.UUID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("empty message body: %w", pkgerrors.ErrInvalidArgument)
	}
	if _, err := s.rooms.GetByID(dbc, roomID); err != nil {
		return nil, err
	}
	msg := &domain.Message{
		RoomID:      roomID,
		UserID:      &authorID,
		Content:     body,
		MessageType: domain.MessageTypeUser,
	}
	msg, err := s.messages.Create(dbc, msg)
	if err != nil {
		return nil, fmt.Errorf("persist user message: %v: %w", err, pkgerrors.ErrPersistence)
	}
	return msg, nil
}

func (s *chatService) invalidateRoom(ctx context.Context, roomID uuid.UUID) {
	s.aside.Invalidate(ctx, cache.RoomListKey(), cache.RoomKey(roomID), cache.RoomMessagesKey(roomID))
}

func (s *chatService) viewOf(dbc dbctx.Context, msg *domain.Message) *domain.MessageView {
	views, err := resolveMessageViews(dbc, s.users, []*domain.Message{msg})
	if err != nil || len(views) == 0 {
		s.log.Warn("username resolution failed", "message_id", msg.ID, "error", err)
		return messageView(msg, nil)
	}
	return views[0]
}
