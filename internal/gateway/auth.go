package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"chat-client/internal/models"
)

// wireProfile is the backend's user payload.
type wireProfile struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Online    bool   `json:"online"`
}

func (p wireProfile) toCredential(token string) models.Credential {
	return models.Credential{
		Token:     token,
		UserID:    p.ID,
		Username:  p.Username,
		Email:     p.Email,
		AvatarURL: p.AvatarURL,
		Online:    p.Online,
	}
}

// Login exchanges credentials for a bearer token. The second return value is
// the refresh token.
func (c *Client) Login(ctx context.Context, email, password string) (models.Credential, string, error) {
	req := map[string]any{
		"auth": map[string]string{"email": email, "password": password},
	}
	var resp struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		User         wireProfile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return models.Credential{}, "", err
	}
	return resp.User.toCredential(resp.AccessToken), resp.RefreshToken, nil
}

// Register creates a backend account.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	req := map[string]any{
		"auth": map[string]string{
			"username":              username,
			"email":                 email,
			"password":              password,
			"password_confirmation": password,
		},
	}
	return c.do(ctx, http.MethodPost, "/auth/register", req, nil)
}

// Refresh trades the refresh token for a fresh credential.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.Credential, string, error) {
	req := map[string]string{"refresh_token": refreshToken}
	var resp struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		User         wireProfile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", req, &resp); err != nil {
		return models.Credential{}, "", err
	}
	return resp.User.toCredential(resp.AccessToken), resp.RefreshToken, nil
}

// Logout invalidates the session server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/auth/logout", nil, nil)
}

// CurrentUser fetches the profile behind the bearer token. It doubles as the
// presence ping.
func (c *Client) CurrentUser(ctx context.Context) (models.Credential, error) {
	var profile wireProfile
	if err := c.do(ctx, http.MethodGet, "/users/current", nil, &profile); err != nil {
		return models.Credential{}, err
	}
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	return profile.toCredential(token), nil
}

// UpdateProfile changes the display name.
func (c *Client) UpdateProfile(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodPut, "/users/current", map[string]string{"username": username}, nil)
}

// UploadAvatar stores a new avatar and returns its URL.
func (c *Client) UploadAvatar(ctx context.Context, upload Upload) (string, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("avatar", upload.Filename)
	if err != nil {
		return "", fmt.Errorf("build avatar form: %w", err)
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return "", fmt.Errorf("copy avatar: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close avatar form: %w", err)
	}

	var resp struct {
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.doMultipart(ctx, "/users/current/avatar", body, form.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	return resp.AvatarURL, nil
}

// RequestPasswordReset asks the backend to mail a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	req := map[string]any{"auth": map[string]string{"email": email}}
	return c.do(ctx, http.MethodPost, "/auth/request_password_reset", req, nil)
}
