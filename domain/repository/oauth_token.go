package repository

import (
	"context"

	"coursemint/domain/model"
)

// IOAuthToken stores provider credentials keyed by (user, platform).
type IOAuthToken interface {
	UpsertToken(ctx context.Context, t *model.OAuthToken) error
	GetToken(ctx context.Context, userID, platform string) (*model.OAuthToken, error)
	MarkInvalid(ctx context.Context, userID, platform string) error
	DeleteToken(ctx context.Context, userID, platform string) error
}

// ITokenRefresher talks to the provider's token endpoint.
type ITokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*model.TokenGrant, error)
	Exchange(ctx context.Context, code string) (*model.TokenGrant, error)
	AuthCodeURL(state string) string
}
