package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS links (
    code        TEXT PRIMARY KEY,
    target_url  TEXT NOT NULL,
    url_hash    TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    expires_at  TIMESTAMPTZ,
    active      BOOLEAN NOT NULL DEFAULT TRUE,
    click_count BIGINT NOT NULL DEFAULT 0,
    metadata    JSONB NOT NULL DEFAULT '{}'::jsonb
);

CREATE INDEX IF NOT EXISTS idx_links_url_hash ON links (url_hash, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_links_created_at ON links (created_at DESC);

CREATE TABLE IF NOT EXISTS click_events (
    id             UUID PRIMARY KEY,
    code           TEXT NOT NULL REFERENCES links (code) ON DELETE CASCADE,
    occurred_at    TIMESTAMPTZ NOT NULL,
    referrer_class TEXT NOT NULL DEFAULT '',
    device         TEXT NOT NULL DEFAULT '',
    browser        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_click_events_code ON click_events (code, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_click_events_occurred_at ON click_events (occurred_at);
`

// Migrate applies the schema. Statements are idempotent, so running it on
// every start is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}
