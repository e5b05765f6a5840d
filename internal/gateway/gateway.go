package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"

	"chat-client/internal/models"
)

var (
	ErrUnauthorized = errors.New("gateway: unauthorized")
	ErrNotFound     = errors.New("gateway: not found")
)

// APIError carries a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway: backend returned %d", e.Status)
	}
	return fmt.Sprintf("gateway: backend returned %d: %s", e.Status, e.Message)
}

// TokenSource supplies the current bearer token for outgoing requests. The
// session manager rotates tokens underneath long-lived clients.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource for a fixed token, used in tests and one-shot
// commands.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Pagination describes a page of the chat list.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Upload is a file handed to SendAttachment or UploadAvatar.
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Gateway is the typed boundary to the messaging backend. It is a pure
// request/response surface; reconciliation of results into local state is the
// store's job.
type Gateway interface {
	ListChats(ctx context.Context, page, pageSize int) ([]models.Chat, Pagination, error)
	CreateChat(ctx context.Context, kind models.ChatKind, memberIDs []int, name string) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	DeleteChat(ctx context.Context, chatID int) error
	RenameChat(ctx context.Context, chatID int, name string) (string, error)

	ListMessages(ctx context.Context, chatID int) ([]models.Message, error)
	SendMessage(ctx context.Context, chatID int, text, replyToID string) (models.Message, error)
	EditMessage(ctx context.Context, chatID int, messageID, text string) (models.Message, error)
	DeleteMessage(ctx context.Context, chatID int, messageID string) error
	SendAttachment(ctx context.Context, chatID int, upload Upload, text, replyToID string) (models.Message, error)
}

// AuthGateway covers the session endpoints of the backend.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (models.Credential, string, error)
	Register(ctx context.Context, username, email, password string) error
	Refresh(ctx context.Context, refreshToken string) (models.Credential, string, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (models.Credential, error)
	UpdateProfile(ctx context.Context, username string) error
	UploadAvatar(ctx context.Context, upload Upload) (string, error)
	RequestPasswordReset(ctx context.Context, email string) error
}
