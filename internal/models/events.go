package models

// Event discriminators delivered over the realtime channel.
const (
	EventMessageCreated = "message_created"
	EventMessageUpdated = "message_updated"
	EventMessageDeleted = "message_deleted"
)

// ChatEvent is broadcasted through the realtime channel for a chat.
type ChatEvent struct {
	Type      string   `json:"type"`
	ChatID    int      `json:"chat_id,omitempty"`
	Message   *Message `json:"message,omitempty"`
	MessageID string   `json:"message_id,omitempty"`
}
