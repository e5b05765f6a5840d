package realtime

import (
	"chat-client/internal/models"
	"chat-client/internal/store"
)

// StoreHandler returns a Handler that reconciles realtime events into the
// timeline store. Duplicate deliveries collapse through the store's
// idempotent insert; deletes and edits for unknown ids are benign no-ops.
func StoreHandler(st *store.Store) Handler {
	return func(chatID int, event models.ChatEvent) {
		switch event.Type {
		case models.EventMessageCreated:
			if event.Message != nil {
				st.AppendMessage(chatID, *event.Message)
			}
		case models.EventMessageUpdated:
			if event.Message != nil {
				st.EditMessageText(chatID, event.Message.ID, event.Message.Text)
				st.ApplyStatus(chatID, event.Message.ID, event.Message.Status)
			}
		case models.EventMessageDeleted:
			if event.MessageID != "" {
				st.RemoveMessage(chatID, event.MessageID)
			}
		}
	}
}
