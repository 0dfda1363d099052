package commerce

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"coursemint/domain/model"

	"golang.org/x/oauth2"
)

// OAuthConfig represents the provider OAuth client configuration
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// OAuthClient exchanges and refreshes provider credentials.
type OAuthClient struct {
	oauth2Config *oauth2.Config
	httpClient   *http.Client
}

func NewOAuthClient(cfg OAuthConfig, httpClient *http.Client) *OAuthClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OAuthClient{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
				// client_id and client_secret travel in the form body
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}
}

func (c *OAuthClient) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for the initial credential.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*model.TokenGrant, error) {
	tok, err := c.oauth2Config.Exchange(c.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return toGrant(tok, ""), nil
}

// Refresh performs a single refresh_token grant. It never retries.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*model.TokenGrant, error) {
	src := c.oauth2Config.TokenSource(c.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token grant: %w", err)
	}
	return toGrant(tok, refreshToken), nil
}

func toGrant(tok *oauth2.Token, previousRefresh string) *model.TokenGrant {
	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	return &model.TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    tok.Expiry,
	}
}
