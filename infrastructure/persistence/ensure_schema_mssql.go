package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSchemaMSSQL creates the access_grants and oauth_tokens tables for SQL
// Server if they do not exist.
func EnsureSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ddl := map[string]string{
		"access_grants": `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.access_grants') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[access_grants] (
        id UNIQUEIDENTIFIER PRIMARY KEY,
        content_item_id UNIQUEIDENTIFIER NOT NULL,
        owner_user_id NVARCHAR(128) NULL,
        code NVARCHAR(16) NOT NULL,
        issued_at DATETIME2 NOT NULL,
        completed_at DATETIME2 NULL,
        external_order_ref NVARCHAR(255) NULL
    );
    CREATE UNIQUE INDEX UX_access_grants_code ON dbo.[access_grants](code);
    CREATE INDEX IX_access_grants_item ON dbo.[access_grants](content_item_id);
END`,
		"oauth_tokens": `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.oauth_tokens') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[oauth_tokens] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(64) NOT NULL,
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NULL,
        expires_at DATETIME2 NULL,
        scopes NVARCHAR(MAX) NOT NULL,
        invalid BIT NOT NULL DEFAULT 0,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_oauth_tokens_user_platform ON dbo.[oauth_tokens](user_id, platform);
END`,
	}
	for _, table := range []string{"access_grants", "oauth_tokens"} {
		if _, err := db.ExecContext(ctx, ddl[table]); err != nil {
			return fmt.Errorf("create %s (mssql): %w", table, err)
		}
	}
	return nil
}
