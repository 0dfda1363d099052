package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coursemint/domain/model"
	"coursemint/domain/repository"
)

type OAuthTokenRepositoryMSSQL struct{ db *sql.DB }

var _ repository.IOAuthToken = (*OAuthTokenRepositoryMSSQL)(nil)

func NewOAuthTokenRepositoryMSSQL(db *sql.DB) *OAuthTokenRepositoryMSSQL {
	return &OAuthTokenRepositoryMSSQL{db: db}
}

func (r *OAuthTokenRepositoryMSSQL) UpsertToken(ctx context.Context, t *model.OAuthToken) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Invalid = false
	// Normalize nullable values for MSSQL driver
	var exp sql.NullTime
	if t.ExpiresAt != nil {
		exp.Valid = true
		exp.Time = *t.ExpiresAt
	}
	// MERGE upsert by (user_id, platform)
	q := `MERGE dbo.[oauth_tokens] AS target
USING (VALUES (@p1, @p2)) AS src(user_id, platform)
ON target.user_id = src.user_id AND target.platform = src.platform
WHEN MATCHED THEN UPDATE SET
    access_token=@p3,
    refresh_token=@p4,
    expires_at=@p5,
    scopes=@p6,
    invalid=0,
    updated_at=@p8
WHEN NOT MATCHED THEN
    INSERT (user_id, platform, access_token, refresh_token, expires_at, scopes, invalid, created_at, updated_at)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,0,@p7,@p8);`
	_, err := r.db.ExecContext(ctx, q,
		t.UserID, t.Platform,
		t.AccessToken,
		t.RefreshToken,
		exp,
		t.Scopes,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert oauth token (mssql): %w", err)
	}
	return nil
}

func (r *OAuthTokenRepositoryMSSQL) GetToken(ctx context.Context, userID, platform string) (*model.OAuthToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, platform, access_token, refresh_token, expires_at, scopes, invalid, created_at, updated_at FROM dbo.[oauth_tokens] WHERE user_id=@p1 AND platform=@p2`, userID, platform)
	return scanToken(row)
}

func (r *OAuthTokenRepositoryMSSQL) MarkInvalid(ctx context.Context, userID, platform string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[oauth_tokens] SET invalid=1, updated_at=@p1 WHERE user_id=@p2 AND platform=@p3`, time.Now().UTC(), userID, platform)
	if err != nil {
		return fmt.Errorf("mark oauth token invalid (mssql): %w", err)
	}
	return expectOneRow(res)
}

func (r *OAuthTokenRepositoryMSSQL) DeleteToken(ctx context.Context, userID, platform string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM dbo.[oauth_tokens] WHERE user_id=@p1 AND platform=@p2`, userID, platform); err != nil {
		return fmt.Errorf("delete oauth token (mssql): %w", err)
	}
	return nil
}
