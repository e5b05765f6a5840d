package store

import (
	"time"

	"github.com/google/uuid"

	"chat-client/internal/models"
)

// Optimistic sends live in a side table under a temporary local id until the
// backend confirms them with a server-assigned id. They never enter the
// shared timeline directly, so a realtime echo of the confirmed message can
// never race the optimistic copy into a duplicate entry.

// AppendPending records an optimistic message and returns its temporary id.
func (s *Store) AppendPending(chatID int, msg models.Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = "pending-" + uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.Status = models.StatusSent

	if s.pending[chatID] == nil {
		s.pending[chatID] = make(map[string]models.Message)
	}
	s.pending[chatID][msg.ID] = msg
	return msg.ID
}

// ResolvePending substitutes the confirmed message for the optimistic entry
// and appends it to the timeline through the idempotent path. An unknown
// temp id still appends the confirmed message: the confirmation is
// authoritative either way.
func (s *Store) ResolvePending(chatID int, tempID string, confirmed models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chatPending, ok := s.pending[chatID]; ok {
		delete(chatPending, tempID)
		if len(chatPending) == 0 {
			delete(s.pending, chatID)
		}
	}
	s.appendLocked(chatID, confirmed)
	s.persist("resolve_pending")
}

// DropPending discards an optimistic entry after a failed send.
func (s *Store) DropPending(chatID int, tempID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chatPending, ok := s.pending[chatID]; ok {
		delete(chatPending, tempID)
		if len(chatPending) == 0 {
			delete(s.pending, chatID)
		}
	}
}

// PendingMessages returns the optimistic entries for a chat in no particular
// order. Renderers interleave them after the confirmed timeline.
func (s *Store) PendingMessages(chatID int) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	chatPending := s.pending[chatID]
	out := make([]models.Message, 0, len(chatPending))
	for _, msg := range chatPending {
		out = append(out, msg)
	}
	return out
}
