package realtime_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/internal/gateway"
	"chat-client/internal/models"
	"chat-client/internal/realtime"
	"chat-client/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// cableServer upgrades connections, records the join frame, and plays the
// given raw frames back to the client.
func cableServer(t *testing.T, frames []string, dials *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if dials != nil {
			dials.Add(1)
		}
		assert.Equal(t, "tok-1", r.URL.Query().Get("token"))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		_, join, err := conn.ReadMessage()
		require.NoError(t, err)
		var cmd struct {
			Command    string `json:"command"`
			Identifier struct {
				Channel string `json:"channel"`
				ChatID  int    `json:"chat_id"`
			} `json:"identifier"`
		}
		require.NoError(t, json.Unmarshal(join, &cmd))
		assert.Equal(t, "subscribe", cmd.Command)
		assert.Equal(t, "ChatChannel", cmd.Identifier.Channel)

		for _, frame := range frames {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
		}
		// Hold the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/cable"
}

func collect(events chan models.ChatEvent, n int, t *testing.T) []models.ChatEvent {
	t.Helper()
	out := make([]models.ChatEvent, 0, n)
	for len(out) < n {
		select {
		case ev := <-events:
			out = append(out, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", len(out)+1, n)
		}
	}
	return out
}

func TestSubscribeDeliversEvents(t *testing.T) {
	frames := []string{
		`{"type": "message_created", "chat_id": 7, "message": {"id": "m1", "text": "hi"}}`,
	}
	srv := cableServer(t, frames, nil)
	defer srv.Close()

	sub := realtime.NewSubscriber(wsURL(srv), gateway.StaticToken("tok-1"), zerolog.Nop())
	defer sub.Close()

	events := make(chan models.ChatEvent, 4)
	_, err := sub.Subscribe(7, func(chatID int, ev models.ChatEvent) {
		events <- ev
	})
	require.NoError(t, err)

	got := collect(events, 1, t)
	assert.Equal(t, models.EventMessageCreated, got[0].Type)
	require.NotNil(t, got[0].Message)
	assert.Equal(t, "m1", got[0].Message.ID)
}

func TestMalformedFramesAreDropped(t *testing.T) {
	frames := []string{
		`not json at all`,
		`{"ping": 123}`,
		`{"type": "message_deleted", "message_id": "m1"}`,
	}
	srv := cableServer(t, frames, nil)
	defer srv.Close()

	sub := realtime.NewSubscriber(wsURL(srv), gateway.StaticToken("tok-1"), zerolog.Nop())
	defer sub.Close()

	events := make(chan models.ChatEvent, 4)
	_, err := sub.Subscribe(7, func(chatID int, ev models.ChatEvent) {
		events <- ev
	})
	require.NoError(t, err)

	got := collect(events, 1, t)
	assert.Equal(t, models.EventMessageDeleted, got[0].Type)
	assert.Equal(t, "m1", got[0].MessageID)

	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event %q", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMissingChatIDDefaultsToSubscription(t *testing.T) {
	frames := []string{
		`{"type": "message_created", "message": {"id": "m1", "text": "hi"}}`,
	}
	srv := cableServer(t, frames, nil)
	defer srv.Close()

	sub := realtime.NewSubscriber(wsURL(srv), gateway.StaticToken("tok-1"), zerolog.Nop())
	defer sub.Close()

	events := make(chan models.ChatEvent, 4)
	_, err := sub.Subscribe(7, func(chatID int, ev models.ChatEvent) {
		events <- ev
	})
	require.NoError(t, err)

	got := collect(events, 1, t)
	assert.Equal(t, 7, got[0].ChatID)
}

func TestSubscribeIsIdempotentPerChat(t *testing.T) {
	var dials atomic.Int32
	srv := cableServer(t, nil, &dials)
	defer srv.Close()

	sub := realtime.NewSubscriber(wsURL(srv), gateway.StaticToken("tok-1"), zerolog.Nop())
	defer sub.Close()

	first, err := sub.Subscribe(7, func(int, models.ChatEvent) {})
	require.NoError(t, err)
	second, err := sub.Subscribe(7, func(int, models.ChatEvent) {})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), dials.Load())
}

func TestUnsubscribeClosesStream(t *testing.T) {
	srv := cableServer(t, nil, nil)
	defer srv.Close()

	sub := realtime.NewSubscriber(wsURL(srv), gateway.StaticToken("tok-1"), zerolog.Nop())

	live, err := sub.Subscribe(7, func(int, models.ChatEvent) {})
	require.NoError(t, err)

	sub.Unsubscribe(7)
	select {
	case <-live.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close")
	}
}

func TestStoreHandlerAppliesEvents(t *testing.T) {
	st := store.New(nil, zerolog.Nop())
	st.ReplaceChats([]models.Chat{{ID: 7, Name: "ops"}})
	handler := realtime.StoreHandler(st)

	now := time.Now()
	handler(7, models.ChatEvent{
		Type:    models.EventMessageCreated,
		Message: &models.Message{ID: "m1", Text: "hi", Timestamp: now, Status: models.StatusSent},
	})
	require.Len(t, st.Messages(7), 1)

	handler(7, models.ChatEvent{
		Type:    models.EventMessageUpdated,
		Message: &models.Message{ID: "m1", Text: "hi!", Status: models.StatusRead},
	})
	got, ok := st.GetMessageByID(7, "m1")
	require.True(t, ok)
	assert.Equal(t, "hi!", got.Text)
	assert.Equal(t, models.StatusRead, got.Status)

	handler(7, models.ChatEvent{Type: models.EventMessageDeleted, MessageID: "m1"})
	assert.Empty(t, st.Messages(7))
}

func TestStoreHandlerToleratesUnknownTargets(t *testing.T) {
	st := store.New(nil, zerolog.Nop())
	handler := realtime.StoreHandler(st)

	handler(7, models.ChatEvent{Type: models.EventMessageUpdated, Message: &models.Message{ID: "ghost", Text: "x"}})
	handler(7, models.ChatEvent{Type: models.EventMessageDeleted, MessageID: "ghost"})
	handler(7, models.ChatEvent{Type: models.EventMessageCreated})

	assert.Empty(t, st.Messages(7))
}
