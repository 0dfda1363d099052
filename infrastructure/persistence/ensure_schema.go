package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coursemint/infrastructure/logger"
)

const (
	constraintContentSlug = "content_items_slug_key"
	constraintGrantCode   = "access_grants_code_key"
)

// EnsureSchema creates the tables used by content generation and checkout.
// Safe to call at startup.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ddl := []struct {
		name string
		sql  string
	}{
		{"content_items", `CREATE TABLE IF NOT EXISTS content_items (
			id UUID PRIMARY KEY,
			slug TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL CHECK (content_type IN ('blog','listicle','course')),
			body JSONB NOT NULL,
			tags TEXT[] NOT NULL DEFAULT '{}',
			key_points TEXT[] NOT NULL DEFAULT '{}',
			estimated_read_time INTEGER NOT NULL DEFAULT 0,
			price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
			published BOOLEAN NOT NULL DEFAULT FALSE,
			external_product_ref TEXT,
			hero_image_url TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			CONSTRAINT content_items_slug_key UNIQUE (slug)
		)`},
		{"access_grants", `CREATE TABLE IF NOT EXISTS access_grants (
			id UUID PRIMARY KEY,
			content_item_id UUID NOT NULL,
			owner_user_id TEXT,
			code TEXT NOT NULL,
			issued_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			external_order_ref TEXT,
			CONSTRAINT access_grants_code_key UNIQUE (code)
		)`},
		{"oauth_tokens", `CREATE TABLE IF NOT EXISTS oauth_tokens (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMPTZ,
			scopes TEXT NOT NULL DEFAULT '',
			invalid BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, platform)
		)`},
	}
	for _, d := range ddl {
		if _, err := db.ExecContext(ctx, d.sql); err != nil {
			return fmt.Errorf("create %s table: %w", d.name, err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_content_items_owner ON content_items(owner_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_access_grants_item ON access_grants(content_item_id)`,
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			logger.GetLogger().WithField("error", err).WithField("ddl", idx).Warn("failed creating index")
		}
	}
	return nil
}
