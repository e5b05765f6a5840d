package models

// Credential is an immutable snapshot of the authenticated session. It is
// produced by login/refresh and passed to other components by value.
type Credential struct {
	Token     string `json:"token"`
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Online    bool   `json:"online"`
}

// Valid reports whether the credential carries a usable bearer token.
func (c Credential) Valid() bool {
	return c.Token != "" && c.UserID != 0
}
