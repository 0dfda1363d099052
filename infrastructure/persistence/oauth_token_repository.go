package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coursemint/domain/model"
	"coursemint/domain/repository"
)

type OAuthTokenRepository struct{ db *sql.DB }

var _ repository.IOAuthToken = (*OAuthTokenRepository)(nil)

func NewOAuthTokenRepository(db *sql.DB) *OAuthTokenRepository { return &OAuthTokenRepository{db: db} }

// UpsertToken stores a fresh credential. Writing a token always clears the
// invalid flag.
func (r *OAuthTokenRepository) UpsertToken(ctx context.Context, t *model.OAuthToken) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Invalid = false
	q := `INSERT INTO oauth_tokens (user_id, platform, access_token, refresh_token, expires_at, scopes, invalid, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,FALSE,$7,$8)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			expires_at=EXCLUDED.expires_at,
			scopes=EXCLUDED.scopes,
			invalid=FALSE,
			updated_at=EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, q, t.UserID, t.Platform, t.AccessToken, t.RefreshToken, t.ExpiresAt, t.Scopes, t.CreatedAt, t.UpdatedAt); err != nil {
		return fmt.Errorf("upsert oauth token: %w", err)
	}
	return nil
}

func (r *OAuthTokenRepository) GetToken(ctx context.Context, userID, platform string) (*model.OAuthToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, platform, access_token, refresh_token, expires_at, scopes, invalid, created_at, updated_at FROM oauth_tokens WHERE user_id=$1 AND platform=$2`, userID, platform)
	return scanToken(row)
}

func (r *OAuthTokenRepository) MarkInvalid(ctx context.Context, userID, platform string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE oauth_tokens SET invalid=TRUE, updated_at=$1 WHERE user_id=$2 AND platform=$3`, time.Now().UTC(), userID, platform)
	if err != nil {
		return fmt.Errorf("mark oauth token invalid: %w", err)
	}
	return expectOneRow(res)
}

func (r *OAuthTokenRepository) DeleteToken(ctx context.Context, userID, platform string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM oauth_tokens WHERE user_id=$1 AND platform=$2`, userID, platform); err != nil {
		return fmt.Errorf("delete oauth token: %w", err)
	}
	return nil
}

func scanToken(row rowScanner) (*model.OAuthToken, error) {
	tok := &model.OAuthToken{}
	var exp sql.NullTime
	var refresh sql.NullString
	if err := row.Scan(&tok.ID, &tok.UserID, &tok.Platform, &tok.AccessToken, &refresh, &exp, &tok.Scopes, &tok.Invalid, &tok.CreatedAt, &tok.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan oauth token: %w", err)
	}
	tok.RefreshToken = refresh.String
	if exp.Valid {
		tok.ExpiresAt = &exp.Time
	}
	return tok, nil
}
