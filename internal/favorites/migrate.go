package favorites

import (
	"context"
	"fmt"
)

func AutoMigrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS favorites (
          user_id    TEXT NOT NULL,
          track_id   TEXT NOT NULL,
          title      TEXT NOT NULL DEFAULT '',
          artist     TEXT NOT NULL DEFAULT '',
          artist_id  TEXT NOT NULL DEFAULT '',
          cover      TEXT NOT NULL DEFAULT '',
          duration   INT NOT NULL DEFAULT 0,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (user_id, track_id)
      )
    `); err != nil {
		return fmt.Errorf("migrate favorites: %w", err)
	}

	if _, err := db.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_favorites_user_created
      ON favorites(user_id, created_at DESC)
    `); err != nil {
		return fmt.Errorf("migrate favorites index: %w", err)
	}
	return nil
}
