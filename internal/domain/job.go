package domain

import "github.com/google/uuid"

// ReplyJob is the payload of one offloaded reply-generation job. It is
// serialized as plain JSON onto the task queue and keyed by
// (RoomID, UserMessageID).
type ReplyJob struct {
	RoomID        uuid.UUID  `json:"room_id"`
	UserMessageID uuid.UUID  `json:"user_message_id"`
	MessageBody   string     `json:"message_body"`
	AuthorID      *uuid.UUID `json:"author_id,omitempty"`
}
