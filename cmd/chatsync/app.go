package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"chat-client/internal/compose"
	"chat-client/internal/config"
	"chat-client/internal/gateway"
	"chat-client/internal/localstore"
	"chat-client/internal/logging"
	"chat-client/internal/models"
	"chat-client/internal/realtime"
	"chat-client/internal/session"
	"chat-client/internal/store"
)

const chatListPageSize = 100

// app wires the client core: session, gateway, snapshot store, timeline
// store, compose controller and realtime subscriber.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	manager    *session.Manager
	client     *gateway.Client
	snapshots  *localstore.SQLiteSnapshotter
	store      *store.Store
	controller *compose.Controller
	subscriber *realtime.Subscriber
}

func newApp(configFile string) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	manager := session.NewManager(logger)
	client := gateway.NewClient(cfg.APIBaseURL, manager, gateway.WithTimeout(cfg.GatewayTimeout))
	manager.SetGateway(client)

	snapshots, err := localstore.Open(cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}

	st := store.New(snapshots, logger)
	st.Hydrate()

	return &app{
		cfg:        cfg,
		logger:     logger,
		manager:    manager,
		client:     client,
		snapshots:  snapshots,
		store:      st,
		controller: compose.New(client, st),
		subscriber: realtime.NewSubscriber(cfg.CableURL, manager, logger),
	}, nil
}

func (a *app) close() {
	a.subscriber.Close()
	if err := a.snapshots.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("snapshot db close failed")
	}
}

// login authenticates with the given credentials, falling back to the
// CHAT_EMAIL / CHAT_PASSWORD environment.
func (a *app) login(ctx context.Context, email, password string) error {
	if email == "" {
		email = os.Getenv("CHAT_EMAIL")
	}
	if password == "" {
		password = os.Getenv("CHAT_PASSWORD")
	}
	if email == "" || password == "" {
		return errors.New("credentials required: pass --email/--password or set CHAT_EMAIL/CHAT_PASSWORD")
	}

	cred, err := a.manager.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.store.SetIdentity(cred.Username)
	return nil
}

// refresh replaces the chat list and every chat's history from the backend.
// The store's replace operations de-duplicate against whatever the snapshot
// or realtime channel already delivered.
func (a *app) refresh(ctx context.Context) error {
	var chats []models.Chat
	page := 1
	for {
		pageChats, pagination, err := a.client.ListChats(ctx, page, chatListPageSize)
		if err != nil {
			return fmt.Errorf("list chats: %w", err)
		}
		chats = append(chats, pageChats...)
		if pagination.TotalPages == 0 || page >= pagination.TotalPages {
			break
		}
		page++
	}
	a.store.ReplaceChats(chats)

	for _, chat := range chats {
		msgs, err := a.client.ListMessages(ctx, chat.ID)
		if err != nil {
			a.logger.Warn().Err(err).Int("chat_id", chat.ID).Msg("history fetch failed")
			continue
		}
		a.store.ReplaceMessages(chat.ID, msgs)
	}
	return nil
}

// subscribeAll opens one realtime subscription per known chat, feeding the
// store's reconciliation handler.
func (a *app) subscribeAll() {
	handler := realtime.StoreHandler(a.store)
	for _, chat := range a.store.Chats() {
		if _, err := a.subscriber.Subscribe(chat.ID, handler); err != nil {
			a.logger.Warn().Err(err).Int("chat_id", chat.ID).Msg("subscribe failed")
		}
	}
}
