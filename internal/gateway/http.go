package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chat-client/internal/models"
)

const defaultTimeout = 15 * time.Second

// Client is the HTTP implementation of Gateway and AuthGateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient constructs a Client against the backend base URL, e.g.
// "http://localhost:3000/api/v1".
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListChats fetches one page of the chat list.
func (c *Client) ListChats(ctx context.Context, page, pageSize int) ([]models.Chat, Pagination, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}
	path := "/conversations"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp struct {
		Conversations []models.WireChat `json:"conversations"`
		Pagination    Pagination        `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, Pagination{}, err
	}

	chats := make([]models.Chat, 0, len(resp.Conversations))
	for _, wc := range resp.Conversations {
		chats = append(chats, wc.ToChat())
	}
	return chats, resp.Pagination, nil
}

// CreateChat creates a private or group conversation.
func (c *Client) CreateChat(ctx context.Context, kind models.ChatKind, memberIDs []int, name string) (models.Chat, error) {
	req := map[string]any{
		"kind":       string(kind),
		"member_ids": memberIDs,
	}
	if name != "" {
		req["name"] = name
	}
	var wc models.WireChat
	if err := c.do(ctx, http.MethodPost, "/conversations", req, &wc); err != nil {
		return models.Chat{}, err
	}
	return wc.ToChat(), nil
}

// GetChat fetches a single conversation.
func (c *Client) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var wc models.WireChat
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/conversations/%d", chatID), nil, &wc); err != nil {
		return models.Chat{}, err
	}
	return wc.ToChat(), nil
}

// DeleteChat removes a conversation and its messages.
func (c *Client) DeleteChat(ctx context.Context, chatID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/conversations/%d", chatID), nil, nil)
}

// RenameChat updates the conversation display name.
func (c *Client) RenameChat(ctx context.Context, chatID int, name string) (string, error) {
	var resp struct {
		Name string `json:"name"`
	}
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/conversations/%d", chatID), map[string]string{"name": name}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Name, nil
}

// ListMessages fetches the full history of a chat.
func (c *Client) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	var wire []models.WireMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/conversations/%d/messages", chatID), nil, &wire); err != nil {
		return nil, err
	}
	msgs := make([]models.Message, 0, len(wire))
	for _, wm := range wire {
		msgs = append(msgs, wm.ToMessage())
	}
	return msgs, nil
}

// SendMessage posts a text message, optionally as a reply.
func (c *Client) SendMessage(ctx context.Context, chatID int, text, replyToID string) (models.Message, error) {
	req := map[string]any{"content": text}
	if replyToID != "" {
		req["reply_to_id"] = replyToID
	}
	var wm models.WireMessage
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/conversations/%d/messages", chatID), req, &wm); err != nil {
		return models.Message{}, err
	}
	return wm.ToMessage(), nil
}

// EditMessage replaces the text of an existing message.
func (c *Client) EditMessage(ctx context.Context, chatID int, messageID, text string) (models.Message, error) {
	var wm models.WireMessage
	path := fmt.Sprintf("/conversations/%d/messages/%s", chatID, url.PathEscape(messageID))
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"content": text}, &wm); err != nil {
		return models.Message{}, err
	}
	return wm.ToMessage(), nil
}

// DeleteMessage removes a message remotely.
func (c *Client) DeleteMessage(ctx context.Context, chatID int, messageID string) error {
	path := fmt.Sprintf("/conversations/%d/messages/%s", chatID, url.PathEscape(messageID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// SendAttachment uploads a file, with optional caption and reply reference.
func (c *Client) SendAttachment(ctx context.Context, chatID int, upload Upload, text, replyToID string) (models.Message, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", upload.Filename)
	if err != nil {
		return models.Message{}, fmt.Errorf("build attachment form: %w", err)
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return models.Message{}, fmt.Errorf("copy attachment: %w", err)
	}
	if text != "" {
		_ = form.WriteField("content", text)
	}
	if replyToID != "" {
		_ = form.WriteField("reply_to_id", replyToID)
	}
	if err := form.Close(); err != nil {
		return models.Message{}, fmt.Errorf("close attachment form: %w", err)
	}

	path := fmt.Sprintf("/conversations/%d/messages/attachment", chatID)
	var wm models.WireMessage
	if err := c.doMultipart(ctx, path, body, form.FormDataContentType(), &wm); err != nil {
		return models.Message{}, err
	}
	return wm.ToMessage(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	return c.roundTrip(req, out)
}

func (c *Client) doMultipart(ctx context.Context, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	return c.roundTrip(req, out)
}

func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) roundTrip(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{Status: resp.StatusCode, Message: decodeErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeErrorMessage(body io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
