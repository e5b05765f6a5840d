package models

import "time"

// Wire DTOs mirror the snake_case payloads of the messaging backend. The
// backend is external; only the fields the client consumes are declared.

// WireAttachment is the backend's attachment payload.
type WireAttachment struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size,omitempty"`
}

// WireMessage is the backend's message payload.
type WireMessage struct {
	ID                  string          `json:"id"`
	Content             string          `json:"content"`
	AuthorName          string          `json:"author_name"`
	Timestamp           time.Time       `json:"timestamp"`
	IsRead              bool            `json:"is_read"`
	Status              string          `json:"status"`
	ReplyToID           string          `json:"reply_to_id,omitempty"`
	ForwardedFromID     string          `json:"forwarded_from_id,omitempty"`
	ForwardedFromChatID int             `json:"forwarded_from_chat_id,omitempty"`
	Attachment          *WireAttachment `json:"attachment,omitempty"`
}

// WireChat is the backend's conversation payload.
type WireChat struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
	IsGroup     bool         `json:"is_group"`
	UnreadCount int          `json:"unread_count"`
	LastMessage *WireMessage `json:"last_message,omitempty"`
}

// ToMessage maps a wire message into the client entity.
func (w WireMessage) ToMessage() Message {
	status := MessageStatus(w.Status)
	if status != StatusSent && status != StatusDelivered && status != StatusRead {
		status = StatusSent
	}
	msg := Message{
		ID:                  w.ID,
		Text:                w.Content,
		Author:              w.AuthorName,
		Timestamp:           w.Timestamp,
		IsRead:              w.IsRead,
		Status:              status,
		ReplyToID:           w.ReplyToID,
		ForwardedFromID:     w.ForwardedFromID,
		ForwardedFromChatID: w.ForwardedFromChatID,
	}
	if w.Attachment != nil {
		msg.Attachment = &Attachment{
			URL:      w.Attachment.URL,
			MimeType: w.Attachment.ContentType,
			Filename: w.Attachment.Filename,
			Size:     w.Attachment.Size,
		}
	}
	return msg
}

// ToChat maps a wire conversation into the client entity.
func (w WireChat) ToChat() Chat {
	chat := Chat{
		ID:          w.ID,
		Name:        w.Name,
		AvatarURL:   w.AvatarURL,
		IsGroup:     w.IsGroup,
		UnreadCount: w.UnreadCount,
	}
	if w.LastMessage != nil {
		msg := w.LastMessage.ToMessage()
		chat.LastMessage = &msg
		chat.LastMessageTime = msg.Timestamp
	}
	return chat
}
