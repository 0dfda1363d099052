package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"coursemint/domain/apperror"
	"coursemint/domain/model"
	"coursemint/domain/repository"
	"coursemint/infrastructure/logger"
)

// refreshSkew treats tokens expiring within this window as already expired.
const refreshSkew = 60 * time.Second

type ITokenUsecase interface {
	// EnsureFreshToken returns a usable commerce access token for the owner,
	// refreshing it at most once.
	EnsureFreshToken(ctx context.Context, ownerID string) (string, error)
	AuthCodeURL(state string) string
	Connect(ctx context.Context, ownerID, authCode string) error
	Disconnect(ctx context.Context, ownerID string) error
	Status(ctx context.Context, ownerID string) (*model.OAuthToken, error)
}

type tokenUsecase struct {
	repo      repository.IOAuthToken
	refresher repository.ITokenRefresher
	scopes    string
	now       func() time.Time
	locks     sync.Map // ownerID -> *sync.Mutex
}

func NewTokenUsecase(repo repository.IOAuthToken, refresher repository.ITokenRefresher, scopes []string) ITokenUsecase {
	return &tokenUsecase{
		repo:      repo,
		refresher: refresher,
		scopes:    strings.Join(scopes, " "),
		now:       time.Now,
	}
}

func (u *tokenUsecase) lock(ownerID string) func() {
	m, _ := u.locks.LoadOrStore(ownerID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (u *tokenUsecase) EnsureFreshToken(ctx context.Context, ownerID string) (string, error) {
	unlock := u.lock(ownerID)
	defer unlock()

	tok, err := u.repo.GetToken(ctx, ownerID, model.PlatformCommerce)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperror.Auth(apperror.CodeNotConnected, "commerce account not connected")
	}
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "load commerce credential", err)
	}
	if tok.Invalid {
		return "", apperror.Auth(apperror.CodeRefreshFailed, "commerce credential must be re-authorized")
	}
	if tok.ExpiresAt == nil || tok.ExpiresAt.After(u.now().Add(refreshSkew)) {
		return tok.AccessToken, nil
	}

	lg := logger.GetLogger().WithField("owner_id", ownerID)
	grant, err := u.refresher.Refresh(ctx, tok.RefreshToken)
	if err != nil {
		lg.WithField("error", err).Warn("commerce token refresh failed; marking credential invalid")
		if mErr := u.repo.MarkInvalid(ctx, ownerID, model.PlatformCommerce); mErr != nil {
			lg.WithField("error", mErr).Error("failed to mark commerce credential invalid")
		}
		return "", apperror.Wrap(apperror.KindAuth, apperror.CodeRefreshFailed, "commerce token refresh failed", err)
	}

	tok.AccessToken = grant.AccessToken
	if grant.RefreshToken != "" {
		tok.RefreshToken = grant.RefreshToken
	}
	tok.ExpiresAt = expiryOf(grant)
	if err := u.repo.UpsertToken(ctx, tok); err != nil {
		return "", apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "persist refreshed credential", err)
	}
	lg.Info("commerce token refreshed")
	return tok.AccessToken, nil
}

func (u *tokenUsecase) AuthCodeURL(state string) string {
	return u.refresher.AuthCodeURL(state)
}

func (u *tokenUsecase) Connect(ctx context.Context, ownerID, authCode string) error {
	if strings.TrimSpace(authCode) == "" {
		return apperror.Validation(apperror.CodeInvalidInput, "authorization code is required")
	}
	grant, err := u.refresher.Exchange(ctx, authCode)
	if err != nil {
		return apperror.Upstream(apperror.CodeUpstreamUnavailable, "authorization code exchange failed", err)
	}
	unlock := u.lock(ownerID)
	defer unlock()
	tok := &model.OAuthToken{
		UserID:       ownerID,
		Platform:     model.PlatformCommerce,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    expiryOf(grant),
		Scopes:       u.scopes,
	}
	if err := u.repo.UpsertToken(ctx, tok); err != nil {
		return apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "store commerce credential", err)
	}
	return nil
}

func (u *tokenUsecase) Disconnect(ctx context.Context, ownerID string) error {
	unlock := u.lock(ownerID)
	defer unlock()
	if err := u.repo.DeleteToken(ctx, ownerID, model.PlatformCommerce); err != nil {
		return apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "delete commerce credential", err)
	}
	return nil
}

func (u *tokenUsecase) Status(ctx context.Context, ownerID string) (*model.OAuthToken, error) {
	tok, err := u.repo.GetToken(ctx, ownerID, model.PlatformCommerce)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Auth(apperror.CodeNotConnected, "commerce account not connected")
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "load commerce credential", err)
	}
	return tok, nil
}

func expiryOf(g *model.TokenGrant) *time.Time {
	if g.ExpiresAt.IsZero() {
		return nil
	}
	exp := g.ExpiresAt.UTC()
	return &exp
}
