package models

import "time"

// MessageStatus tracks delivery progress for a message.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

func (s MessageStatus) rank() int {
	switch s {
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	default:
		return 0
	}
}

// Upgrade returns the later of the two statuses. Local state never moves a
// message backwards; only gateway confirmations advance it.
func (s MessageStatus) Upgrade(to MessageStatus) MessageStatus {
	if to.rank() > s.rank() {
		return to
	}
	return s
}

// Attachment is a file carried by a message. The URL may be an ephemeral
// object reference that does not survive a reload.
type Attachment struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
}

// Message is a single unit of conversation content. IDs are server-assigned
// for persisted messages and locally generated for optimistic ones.
type Message struct {
	ID                  string        `json:"id"`
	Text                string        `json:"text,omitempty"`
	Author              string        `json:"author"`
	Timestamp           time.Time     `json:"timestamp"`
	IsRead              bool          `json:"is_read"`
	Status              MessageStatus `json:"status"`
	Attachment          *Attachment   `json:"attachment,omitempty"`
	ReplyToID           string        `json:"reply_to_id,omitempty"`
	ForwardedFromID     string        `json:"forwarded_from_id,omitempty"`
	ForwardedFromChatID int           `json:"forwarded_from_chat_id,omitempty"`
}
