package compose

import (
	"context"
	"errors"
	"sync"

	"chat-client/internal/gateway"
	"chat-client/internal/models"
	"chat-client/internal/store"
)

// State names the compose session states. The state machine is transient,
// per-session and never persisted.
type State string

const (
	StateIdle                   State = "idle"
	StateComposing              State = "composing"
	StateComposingReply         State = "composing_reply"
	StateEditing                State = "editing"
	StateSelectingForwardTarget State = "selecting_forward_target"
)

var ErrEmptyDraft = errors.New("compose: nothing to send")

// Controller holds what the user is doing right now: the draft, the reply
// target, the message being edited, the forward selection and the pinned
// message. It owns no durable data; every message reference is an id
// re-resolved through the store on use, since the store's copy may change
// underneath it.
type Controller struct {
	mu         sync.Mutex
	gw         gateway.Gateway
	store      *store.Store
	optimistic bool

	state           State
	draft           string
	replyToID       string
	editingChatID   int
	editingID       string
	forwardSourceID string
	pinnedID        string
}

// Option configures a Controller.
type Option func(*Controller)

// WithOptimistic enables optimistic local insertion: sends are parked in the
// store's pending table and reconciled to the server-assigned id on
// confirmation.
func WithOptimistic() Option {
	return func(c *Controller) { c.optimistic = true }
}

// New constructs an idle Controller over the given gateway and store.
func New(gw gateway.Gateway, st *store.Store, opts ...Option) *Controller {
	c := &Controller{gw: gw, store: st, state: StateIdle}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports the current compose state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Draft returns the current draft text.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft updates the draft. A non-empty draft moves Idle to Composing; the
// reply and edit states keep their shape while the user types.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
	if c.state == StateIdle && text != "" {
		c.state = StateComposing
	}
}

// StartReply selects a message to reply to.
func (c *Controller) StartReply(messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replyToID = messageID
	c.state = StateComposingReply
}

// ReplyTarget resolves the reply reference. A false result means the target
// was deleted underneath the selection; render a fallback, not an error.
func (c *Controller) ReplyTarget(chatID int) (models.Message, bool) {
	c.mu.Lock()
	id := c.replyToID
	c.mu.Unlock()
	if id == "" {
		return models.Message{}, false
	}
	return c.store.GetMessageByID(chatID, id)
}

// StartEdit seeds the draft from the store's current copy of the message.
// It reports false, without changing state, when the id no longer resolves.
func (c *Controller) StartEdit(chatID int, messageID string) bool {
	msg, ok := c.store.GetMessageByID(chatID, messageID)
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateEditing
	c.editingChatID = chatID
	c.editingID = messageID
	c.draft = msg.Text
	return true
}

// StartForward selects a message to forward.
func (c *Controller) StartForward(messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forwardSourceID = messageID
	c.state = StateSelectingForwardTarget
}

// PickForwardTarget copies the selected message into the target chat. A
// vanished source is a silent no-op; either way the session returns to Idle.
func (c *Controller) PickForwardTarget(targetChatID int) (models.Message, bool) {
	c.mu.Lock()
	sourceID := c.forwardSourceID
	c.mu.Unlock()

	msg, ok := c.store.ForwardMessage(sourceID, targetChatID)
	c.reset()
	return msg, ok
}

// PinMessage marks a message for pinned display.
func (c *Controller) PinMessage(messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinnedID = messageID
}

// UnpinMessage clears the pin.
func (c *Controller) UnpinMessage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinnedID = ""
}

// PinnedMessage resolves the pinned reference for a chat.
func (c *Controller) PinnedMessage(chatID int) (models.Message, bool) {
	c.mu.Lock()
	id := c.pinnedID
	c.mu.Unlock()
	if id == "" {
		return models.Message{}, false
	}
	return c.store.GetMessageByID(chatID, id)
}

// Cancel abandons the compose session and returns to Idle.
func (c *Controller) Cancel() {
	c.reset()
}

// Submit sends or edits depending on the compose state. The store is only
// mutated after the gateway confirms; on failure the state and draft are
// preserved so the user can retry, and the error is surfaced inline.
func (c *Controller) Submit(ctx context.Context, chatID int) (models.Message, error) {
	c.mu.Lock()
	state := c.state
	draft := c.draft
	replyToID := c.replyToID
	editingChatID := c.editingChatID
	editingID := c.editingID
	c.mu.Unlock()

	if draft == "" {
		return models.Message{}, ErrEmptyDraft
	}

	if state == StateEditing {
		confirmed, err := c.gw.EditMessage(ctx, editingChatID, editingID, draft)
		if err != nil {
			return models.Message{}, err
		}
		if c.chatKnown(editingChatID) {
			c.store.EditMessageText(editingChatID, editingID, confirmed.Text)
		}
		c.reset()
		return confirmed, nil
	}

	if state == StateComposingReply {
		// The reply target may have been deleted while composing; the send
		// degrades to a plain message rather than failing.
		if _, ok := c.store.GetMessageByID(chatID, replyToID); !ok {
			replyToID = ""
		}
	} else {
		replyToID = ""
	}

	var tempID string
	if c.optimistic {
		tempID = c.store.AppendPending(chatID, models.Message{Text: draft, ReplyToID: replyToID})
	}

	confirmed, err := c.gw.SendMessage(ctx, chatID, draft, replyToID)
	if err != nil {
		if tempID != "" {
			c.store.DropPending(chatID, tempID)
		}
		return models.Message{}, err
	}

	c.applyConfirmed(chatID, tempID, confirmed)
	c.reset()
	return confirmed, nil
}

// SubmitAttachment validates the upload, then sends it with the current
// draft as caption. Validation failures abort before any gateway call or
// store mutation.
func (c *Controller) SubmitAttachment(ctx context.Context, chatID int, upload gateway.Upload) (models.Message, error) {
	if err := ValidateUpload(upload); err != nil {
		return models.Message{}, err
	}

	c.mu.Lock()
	draft := c.draft
	replyToID := c.replyToID
	if c.state != StateComposingReply {
		replyToID = ""
	}
	c.mu.Unlock()

	confirmed, err := c.gw.SendAttachment(ctx, chatID, upload, draft, replyToID)
	if err != nil {
		return models.Message{}, err
	}

	c.applyConfirmed(chatID, "", confirmed)
	c.reset()
	return confirmed, nil
}

// DeleteMessage removes a message remotely, then locally. A backend 404
// means the message is already gone; the local removal still applies.
func (c *Controller) DeleteMessage(ctx context.Context, chatID int, messageID string) error {
	err := c.gw.DeleteMessage(ctx, chatID, messageID)
	if err != nil && !errors.Is(err, gateway.ErrNotFound) {
		return err
	}
	c.store.RemoveMessage(chatID, messageID)
	return nil
}

// DeleteChat removes a conversation remotely, then drops it and its messages
// from the store. A backend 404 means it is already gone remotely; the local
// removal still applies.
func (c *Controller) DeleteChat(ctx context.Context, chatID int) error {
	err := c.gw.DeleteChat(ctx, chatID)
	if err != nil && !errors.Is(err, gateway.ErrNotFound) {
		return err
	}
	c.store.RemoveChat(chatID)
	return nil
}

// applyConfirmed guards the continuation: a chat closed while the call was
// in flight must not be revived by a late confirmation.
func (c *Controller) applyConfirmed(chatID int, tempID string, confirmed models.Message) {
	if !c.chatKnown(chatID) {
		if tempID != "" {
			c.store.DropPending(chatID, tempID)
		}
		return
	}
	if tempID != "" {
		c.store.ResolvePending(chatID, tempID, confirmed)
		return
	}
	c.store.AppendMessage(chatID, confirmed)
}

func (c *Controller) chatKnown(chatID int) bool {
	for _, chat := range c.store.Chats() {
		if chat.ID == chatID {
			return true
		}
	}
	return false
}

func (c *Controller) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.draft = ""
	c.replyToID = ""
	c.editingChatID = 0
	c.editingID = ""
	c.forwardSourceID = ""
}
