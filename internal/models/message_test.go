package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/internal/models"
)

func TestStatusUpgradeNeverDowngrades(t *testing.T) {
	assert.Equal(t, models.StatusDelivered, models.StatusSent.Upgrade(models.StatusDelivered))
	assert.Equal(t, models.StatusRead, models.StatusDelivered.Upgrade(models.StatusRead))
	assert.Equal(t, models.StatusRead, models.StatusRead.Upgrade(models.StatusSent))
	assert.Equal(t, models.StatusRead, models.StatusRead.Upgrade(models.StatusDelivered))
	assert.Equal(t, models.StatusSent, models.StatusSent.Upgrade(models.StatusSent))
	assert.Equal(t, models.StatusDelivered, models.StatusDelivered.Upgrade("garbage"))
}

func TestWireMessageMapping(t *testing.T) {
	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	wire := models.WireMessage{
		ID:         "m1",
		Content:    "hello",
		AuthorName: "ada",
		Timestamp:  ts,
		IsRead:     true,
		Status:     "delivered",
		ReplyToID:  "m0",
		Attachment: &models.WireAttachment{URL: "/files/a.png", ContentType: "image/png", Filename: "a.png", Size: 42},
	}

	msg := wire.ToMessage()
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, "ada", msg.Author)
	assert.Equal(t, ts, msg.Timestamp)
	assert.True(t, msg.IsRead)
	assert.Equal(t, models.StatusDelivered, msg.Status)
	assert.Equal(t, "m0", msg.ReplyToID)
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "image/png", msg.Attachment.MimeType)
	assert.Equal(t, int64(42), msg.Attachment.Size)
}

func TestWireMessageUnknownStatusFallsBackToSent(t *testing.T) {
	for _, status := range []string{"", "queued", "SENT"} {
		msg := models.WireMessage{ID: "m1", Status: status}.ToMessage()
		assert.Equal(t, models.StatusSent, msg.Status, "status %q", status)
	}
}

func TestWireChatMapping(t *testing.T) {
	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	wire := models.WireChat{
		ID:          7,
		Name:        "ops",
		IsGroup:     true,
		UnreadCount: 3,
		LastMessage: &models.WireMessage{ID: "m1", Content: "latest", Timestamp: ts},
	}

	chat := wire.ToChat()
	assert.Equal(t, 7, chat.ID)
	assert.True(t, chat.IsGroup)
	assert.Equal(t, 3, chat.UnreadCount)
	require.NotNil(t, chat.LastMessage)
	assert.Equal(t, "latest", chat.LastMessage.Text)
	assert.Equal(t, ts, chat.LastMessageTime)
}

func TestWireChatWithoutLastMessage(t *testing.T) {
	chat := models.WireChat{ID: 7, Name: "quiet"}.ToChat()
	assert.Nil(t, chat.LastMessage)
	assert.True(t, chat.LastMessageTime.IsZero())
}

func TestCredentialValid(t *testing.T) {
	assert.False(t, models.Credential{}.Valid())
	assert.False(t, models.Credential{Token: "acc"}.Valid())
	assert.False(t, models.Credential{UserID: 12}.Valid())
	assert.True(t, models.Credential{Token: "acc", UserID: 12}.Valid())
}
