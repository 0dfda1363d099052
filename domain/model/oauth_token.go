package model

import "time"

// PlatformCommerce is the oauth_tokens.platform value for the commerce provider.
const PlatformCommerce = "commerce"

// OAuthToken stores a provider OAuth credential per user
type OAuthToken struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	Platform     string     `json:"platform"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Scopes       string     `json:"scopes"`
	Invalid      bool       `json:"invalid"` // set when a refresh was rejected; needs re-authorization
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TokenGrant is what the provider returns from a code exchange or refresh.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
