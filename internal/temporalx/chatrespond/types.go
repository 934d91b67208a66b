package chatrespond

import "github.com/google/uuid"

const (
	WorkflowName    = "chat_respond"
	ActivityRespond = "chat_respond_generate"
)

// Result is what a finished reply run reports back through workflow history.
type Result struct {
	ReplyMessageID uuid.UUID `json:"reply_message_id"`
	Content        string    `json:"content"`
}
