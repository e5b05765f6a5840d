package models

import "time"

// Chat is a direct or group conversation summary. LastMessage is a
// denormalized copy of the latest known message and is absent for a chat
// with no messages yet.
type Chat struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	IsGroup         bool      `json:"is_group"`
	LastMessage     *Message  `json:"last_message,omitempty"`
	LastMessageTime time.Time `json:"last_message_time,omitempty"`
	UnreadCount     int       `json:"unread_count"`
}

// ChatKind selects the conversation type on creation.
type ChatKind string

const (
	ChatPrivate ChatKind = "private"
	ChatGroup   ChatKind = "group"
)
