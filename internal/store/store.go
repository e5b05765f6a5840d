package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chat-client/internal/models"
	"chat-client/internal/observability"
)

// Snapshot is the persisted state layout: the full chat list, the active chat
// and every per-chat message list.
type Snapshot struct {
	Chats        []models.Chat            `json:"chats"`
	ActiveChatID *int                     `json:"active_chat_id,omitempty"`
	Messages     map[int][]models.Message `json:"messages"`
}

// Snapshotter persists store state across restarts. Save is best-effort;
// Load reports absence via its second return value.
type Snapshotter interface {
	Save(Snapshot) error
	Load() (Snapshot, bool, error)
}

// Store is the single source of truth for per-chat message timelines and chat
// summaries. It reconciles REST history, realtime pushes and local mutations
// into one consistent view. All operations are total: absent ids are benign
// no-ops, never errors.
//
// Mutations arrive from gateway continuations and realtime read loops on
// different goroutines, so a mutex serializes them the way the browser event
// loop serialized the original.
type Store struct {
	mu           sync.Mutex
	chats        []models.Chat
	activeChatID *int
	messages     map[int][]models.Message
	pending      map[int]map[string]models.Message
	self         string
	snapshots    Snapshotter
	logger       zerolog.Logger
}

// New constructs an empty Store. Construct once at startup and inject; the
// store owns its collections exclusively.
func New(snapshots Snapshotter, logger zerolog.Logger) *Store {
	return &Store{
		messages:  make(map[int][]models.Message),
		pending:   make(map[int]map[string]models.Message),
		snapshots: snapshots,
		logger:    logger,
	}
}

// SetIdentity records the display name used as author for locally
// synthesized messages (forwards).
func (s *Store) SetIdentity(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self = username
}

// Hydrate loads the persisted snapshot if one exists. Absence or a corrupt
// snapshot leaves the store empty; neither is an error for the caller.
func (s *Store) Hydrate() {
	if s.snapshots == nil {
		return
	}
	snap, ok, err := s.snapshots.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("snapshot load failed, starting empty")
		return
	}
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = snap.Chats
	s.activeChatID = snap.ActiveChatID
	if snap.Messages != nil {
		s.messages = snap.Messages
	} else {
		s.messages = make(map[int][]models.Message)
	}
}

// ReplaceChats overwrites the chat list wholesale. Message lists are not
// touched; last writer wins.
func (s *Store) ReplaceChats(chats []models.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append([]models.Chat(nil), chats...)
	s.persist("replace_chats")
}

// RemoveChat deletes a chat together with its message list and any pending
// entries. The active selection is cleared when it pointed at the removed
// chat. Absent ids are a no-op.
func (s *Store) RemoveChat(chatID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.chats {
		if s.chats[i].ID != chatID {
			continue
		}
		s.chats = append(s.chats[:i:i], s.chats[i+1:]...)
		delete(s.messages, chatID)
		delete(s.pending, chatID)
		if s.activeChatID != nil && *s.activeChatID == chatID {
			s.activeChatID = nil
		}
		s.persist("remove_chat")
		return
	}
}

// SetActiveChat marks a chat as currently viewed and clears its unread
// counter. Read-receipt propagation to the backend is a collaborator concern.
func (s *Store) SetActiveChat(chatID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chatID
	s.activeChatID = &id
	if chat := s.findChat(chatID); chat != nil {
		chat.UnreadCount = 0
	}
	s.persist("set_active_chat")
}

// ClearActiveChat marks no chat as viewed.
func (s *Store) ClearActiveChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeChatID = nil
	s.persist("clear_active_chat")
}

// ActiveChatID returns the currently viewed chat, if any.
func (s *Store) ActiveChatID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeChatID == nil {
		return 0, false
	}
	return *s.activeChatID, true
}

// AppendMessage inserts a message at the tail of the chat's timeline. The
// insert is idempotent by message id: a duplicate leaves list membership
// untouched but refreshes the denormalized summary copy. The list keeps
// arrival order; readers needing temporal order use OrderedMessages.
func (s *Store) AppendMessage(chatID int, msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(chatID, msg)
	s.persist("append_message")
}

func (s *Store) appendLocked(chatID int, msg models.Message) {
	list := s.messages[chatID]
	for i := range list {
		if list[i].ID == msg.ID {
			// Duplicate delivery (optimistic echo, redelivered push). Keep
			// the existing entry but let the summary reflect newer fields.
			if chat := s.findChat(chatID); chat != nil && chat.LastMessage != nil && chat.LastMessage.ID == msg.ID {
				copied := msg
				chat.LastMessage = &copied
			}
			return
		}
	}

	active := s.activeChatID != nil && *s.activeChatID == chatID
	if active {
		msg.IsRead = true
	}
	s.messages[chatID] = append(list, msg)

	if chat := s.findChat(chatID); chat != nil {
		copied := msg
		chat.LastMessage = &copied
		chat.LastMessageTime = msg.Timestamp
		if !active {
			chat.UnreadCount++
		}
	}
}

// ReplaceMessages swaps in the full history for a chat, de-duplicated by id
// in arrival order, and recomputes the chat summary from the new tail.
func (s *Store) ReplaceMessages(chatID int, msgs []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(msgs))
	list := make([]models.Message, 0, len(msgs))
	for _, msg := range msgs {
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		seen[msg.ID] = struct{}{}
		list = append(list, msg)
	}
	s.messages[chatID] = list
	s.refreshSummary(chatID)
	s.persist("replace_messages")
}

// EditMessageText mutates only the text of the matching message. Absent ids
// are a no-op: the message may have been legitimately deleted underneath a
// stale reference.
func (s *Store) EditMessageText(chatID int, messageID, newText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[chatID]
	for i := range list {
		if list[i].ID != messageID {
			continue
		}
		list[i].Text = newText
		if chat := s.findChat(chatID); chat != nil && chat.LastMessage != nil && chat.LastMessage.ID == messageID {
			copied := list[i]
			chat.LastMessage = &copied
		}
		s.persist("edit_message")
		return
	}
}

// ApplyStatus advances the delivery status of a message. Status never moves
// backwards; stale confirmations are absorbed.
func (s *Store) ApplyStatus(chatID int, messageID string, status models.MessageStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[chatID]
	for i := range list {
		if list[i].ID != messageID {
			continue
		}
		list[i].Status = list[i].Status.Upgrade(status)
		if chat := s.findChat(chatID); chat != nil && chat.LastMessage != nil && chat.LastMessage.ID == messageID {
			copied := list[i]
			chat.LastMessage = &copied
		}
		s.persist("apply_status")
		return
	}
}

// RemoveMessage deletes the matching entry and recomputes the chat summary
// from the remaining tail. Absent ids are a no-op.
func (s *Store) RemoveMessage(chatID int, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[chatID]
	for i := range list {
		if list[i].ID != messageID {
			continue
		}
		s.messages[chatID] = append(list[:i:i], list[i+1:]...)
		s.refreshSummary(chatID)
		s.persist("remove_message")
		return
	}
}

// ForwardMessage copies the source message into the target chat under a
// fresh id, keeping a reference to where it came from. The source is located
// by scanning all chats; ids are globally unique in this cache. A missing
// source is a silent no-op.
func (s *Store) ForwardMessage(sourceMessageID string, targetChatID int) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sourceChatID, original, ok := s.findAnywhere(sourceMessageID)
	if !ok {
		return models.Message{}, false
	}

	forwarded := models.Message{
		ID:                  uuid.NewString(),
		Text:                original.Text,
		Author:              s.self,
		Timestamp:           time.Now(),
		Status:              models.StatusSent,
		Attachment:          original.Attachment,
		ForwardedFromID:     original.ID,
		ForwardedFromChatID: sourceChatID,
	}
	s.appendLocked(targetChatID, forwarded)
	s.persist("forward_message")
	return forwarded, true
}

// GetMessageByID resolves a message reference, e.g. a reply or forward
// preview. Callers render a fallback when the reference no longer resolves.
func (s *Store) GetMessageByID(chatID int, messageID string) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.messages[chatID] {
		if msg.ID == messageID {
			return msg, true
		}
	}
	return models.Message{}, false
}

// Chats returns a copy of the chat summaries.
func (s *Store) Chats() []models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Chat, len(s.chats))
	copy(out, s.chats)
	for i := range out {
		if out[i].LastMessage != nil {
			copied := *out[i].LastMessage
			out[i].LastMessage = &copied
		}
	}
	return out
}

// Messages returns a copy of the chat's timeline in arrival order.
func (s *Store) Messages(chatID int) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages[chatID]...)
}

// OrderedMessages returns a copy of the timeline sorted by timestamp. The
// stored list keeps arrival order; renderers that need temporal order sort
// here, at the edge, so out-of-order delivery never rewrites the timeline.
func (s *Store) OrderedMessages(chatID int) []models.Message {
	out := s.Messages(chatID)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (s *Store) findChat(chatID int) *models.Chat {
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			return &s.chats[i]
		}
	}
	return nil
}

func (s *Store) findAnywhere(messageID string) (int, models.Message, bool) {
	for chatID, list := range s.messages {
		for _, msg := range list {
			if msg.ID == messageID {
				return chatID, msg, true
			}
		}
	}
	return 0, models.Message{}, false
}

// refreshSummary repoints LastMessage at the current tail, or clears it when
// the list is empty. Callers hold the lock.
func (s *Store) refreshSummary(chatID int) {
	chat := s.findChat(chatID)
	if chat == nil {
		return
	}
	list := s.messages[chatID]
	if len(list) == 0 {
		chat.LastMessage = nil
		chat.LastMessageTime = time.Time{}
		return
	}
	tail := list[len(list)-1]
	chat.LastMessage = &tail
	chat.LastMessageTime = tail.Timestamp
}

// persist writes the full snapshot after a mutation. Failures are logged and
// never roll back the in-memory change. Callers hold the lock.
func (s *Store) persist(op string) {
	observability.IncStoreOp(op)
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(s.snapshotLocked()); err != nil {
		s.logger.Warn().Err(err).Str("op", op).Msg("snapshot save failed")
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Chats:    make([]models.Chat, len(s.chats)),
		Messages: make(map[int][]models.Message, len(s.messages)),
	}
	copy(snap.Chats, s.chats)
	for i := range snap.Chats {
		if snap.Chats[i].LastMessage != nil {
			copied := *snap.Chats[i].LastMessage
			snap.Chats[i].LastMessage = &copied
		}
	}
	if s.activeChatID != nil {
		id := *s.activeChatID
		snap.ActiveChatID = &id
	}
	for chatID, list := range s.messages {
		snap.Messages[chatID] = append([]models.Message(nil), list...)
	}
	return snap
}
