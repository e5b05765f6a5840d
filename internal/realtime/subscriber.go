package realtime

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chat-client/internal/gateway"
	"chat-client/internal/models"
	"chat-client/internal/observability"
)

// Handler consumes events for a chat. Handlers run on the subscription's
// read goroutine; the store serializes whatever they apply.
type Handler func(chatID int, event models.ChatEvent)

// subscribeCommand is the channel join frame sent after dialing.
type subscribeCommand struct {
	Command    string `json:"command"`
	Identifier struct {
		Channel string `json:"channel"`
		ChatID  int    `json:"chat_id"`
	} `json:"identifier"`
}

// Subscriber manages one logical realtime subscription per chat over the
// backend's cable endpoint. It tolerates duplicate redelivery (the store
// de-duplicates) and drops malformed frames. Transport reconnection is not
// its concern; a dropped subscription is simply re-created by the caller.
type Subscriber struct {
	cableURL string
	tokens   gateway.TokenSource
	dialer   *websocket.Dialer
	logger   zerolog.Logger

	mu   sync.Mutex
	subs map[int]*Subscription
}

// NewSubscriber constructs a Subscriber for the cable URL, e.g.
// "ws://localhost:3000/cable".
func NewSubscriber(cableURL string, tokens gateway.TokenSource, logger zerolog.Logger) *Subscriber {
	return &Subscriber{
		cableURL: cableURL,
		tokens:   tokens,
		dialer:   websocket.DefaultDialer,
		logger:   logger,
		subs:     make(map[int]*Subscription),
	}
}

// Subscribe opens the chat's event stream and feeds handler until the
// subscription closes. Subscribing to an already-subscribed chat returns the
// live subscription.
func (s *Subscriber) Subscribe(chatID int, handler Handler) (*Subscription, error) {
	s.mu.Lock()
	if sub, ok := s.subs[chatID]; ok {
		s.mu.Unlock()
		return sub, nil
	}
	s.mu.Unlock()

	dialURL, err := s.buildURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := s.dialer.Dial(dialURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial cable: %w", err)
	}

	cmd := subscribeCommand{Command: "subscribe"}
	cmd.Identifier.Channel = "ChatChannel"
	cmd.Identifier.ChatID = chatID
	if err := conn.WriteJSON(cmd); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send subscribe: %w", err)
	}

	sub := &Subscription{chatID: chatID, conn: conn, done: make(chan struct{})}

	s.mu.Lock()
	s.subs[chatID] = sub
	s.mu.Unlock()
	observability.IncRealtimeSubscriptions()

	go s.readLoop(sub, handler)
	return sub, nil
}

// Unsubscribe closes the chat's subscription if one is live.
func (s *Subscriber) Unsubscribe(chatID int) {
	s.mu.Lock()
	sub, ok := s.subs[chatID]
	s.mu.Unlock()
	if ok {
		sub.Close()
	}
}

// Close tears down every live subscription. Called on logout.
func (s *Subscriber) Close() {
	s.mu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (s *Subscriber) buildURL() (string, error) {
	parsed, err := url.Parse(s.cableURL)
	if err != nil {
		return "", fmt.Errorf("parse cable url: %w", err)
	}
	query := parsed.Query()
	if s.tokens != nil {
		if token := s.tokens.Token(); token != "" {
			query.Set("token", token)
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (s *Subscriber) readLoop(sub *Subscription, handler Handler) {
	defer func() {
		s.mu.Lock()
		if current, ok := s.subs[sub.chatID]; ok && current == sub {
			delete(s.subs, sub.chatID)
		}
		s.mu.Unlock()
		observability.DecRealtimeSubscriptions()
		sub.Close()
	}()

	for {
		_, payload, err := sub.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Int("chat_id", sub.chatID).Msg("cable read ended")
			}
			return
		}

		var event models.ChatEvent
		if err := json.Unmarshal(payload, &event); err != nil || event.Type == "" {
			// Pings and malformed frames are dropped; the store tolerates gaps.
			continue
		}
		if event.ChatID == 0 {
			event.ChatID = sub.chatID
		}
		observability.IncRealtimeEvent(event.Type)
		handler(sub.chatID, event)
	}
}

// Subscription is a live per-chat event stream handle.
type Subscription struct {
	chatID    int
	conn      *websocket.Conn
	closeOnce sync.Once
	done      chan struct{}
}

// ChatID returns the chat this subscription follows.
func (s *Subscription) ChatID() int { return s.chatID }

// Close shuts the stream down. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.conn.Close()
		close(s.done)
	})
}

// Done is closed when the subscription has fully shut down.
func (s *Subscription) Done() <-chan struct{} { return s.done }
