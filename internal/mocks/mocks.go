package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-client/internal/gateway"
	"chat-client/internal/models"
	"chat-client/internal/store"
)

// GatewayMock mocks gateway.Gateway.
type GatewayMock struct {
	mock.Mock
}

func (m *GatewayMock) ListChats(ctx context.Context, page, pageSize int) ([]models.Chat, gateway.Pagination, error) {
	args := m.Called(ctx, page, pageSize)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	var pagination gateway.Pagination
	if val := args.Get(1); val != nil {
		pagination = val.(gateway.Pagination)
	}
	return chats, pagination, args.Error(2)
}

func (m *GatewayMock) CreateChat(ctx context.Context, kind models.ChatKind, memberIDs []int, name string) (models.Chat, error) {
	args := m.Called(ctx, kind, memberIDs, name)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *GatewayMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *GatewayMock) DeleteChat(ctx context.Context, chatID int) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *GatewayMock) RenameChat(ctx context.Context, chatID int, name string) (string, error) {
	args := m.Called(ctx, chatID, name)
	return args.String(0), args.Error(1)
}

func (m *GatewayMock) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *GatewayMock) SendMessage(ctx context.Context, chatID int, text, replyToID string) (models.Message, error) {
	args := m.Called(ctx, chatID, text, replyToID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *GatewayMock) EditMessage(ctx context.Context, chatID int, messageID, text string) (models.Message, error) {
	args := m.Called(ctx, chatID, messageID, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *GatewayMock) DeleteMessage(ctx context.Context, chatID int, messageID string) error {
	args := m.Called(ctx, chatID, messageID)
	return args.Error(0)
}

func (m *GatewayMock) SendAttachment(ctx context.Context, chatID int, upload gateway.Upload, text, replyToID string) (models.Message, error) {
	args := m.Called(ctx, chatID, upload, text, replyToID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

// AuthGatewayMock mocks gateway.AuthGateway.
type AuthGatewayMock struct {
	mock.Mock
}

func (m *AuthGatewayMock) Login(ctx context.Context, email, password string) (models.Credential, string, error) {
	args := m.Called(ctx, email, password)
	var cred models.Credential
	if val := args.Get(0); val != nil {
		cred = val.(models.Credential)
	}
	return cred, args.String(1), args.Error(2)
}

func (m *AuthGatewayMock) Register(ctx context.Context, username, email, password string) error {
	args := m.Called(ctx, username, email, password)
	return args.Error(0)
}

func (m *AuthGatewayMock) Refresh(ctx context.Context, refreshToken string) (models.Credential, string, error) {
	args := m.Called(ctx, refreshToken)
	var cred models.Credential
	if val := args.Get(0); val != nil {
		cred = val.(models.Credential)
	}
	return cred, args.String(1), args.Error(2)
}

func (m *AuthGatewayMock) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *AuthGatewayMock) CurrentUser(ctx context.Context) (models.Credential, error) {
	args := m.Called(ctx)
	var cred models.Credential
	if val := args.Get(0); val != nil {
		cred = val.(models.Credential)
	}
	return cred, args.Error(1)
}

func (m *AuthGatewayMock) UpdateProfile(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *AuthGatewayMock) UploadAvatar(ctx context.Context, upload gateway.Upload) (string, error) {
	args := m.Called(ctx, upload)
	return args.String(0), args.Error(1)
}

func (m *AuthGatewayMock) RequestPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// SnapshotterMock mocks store.Snapshotter.
type SnapshotterMock struct {
	mock.Mock
}

func (m *SnapshotterMock) Save(snap store.Snapshot) error {
	args := m.Called(snap)
	return args.Error(0)
}

func (m *SnapshotterMock) Load() (store.Snapshot, bool, error) {
	args := m.Called()
	var snap store.Snapshot
	if val := args.Get(0); val != nil {
		snap = val.(store.Snapshot)
	}
	return snap, args.Bool(1), args.Error(2)
}
