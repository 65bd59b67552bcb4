package queue

import (
	"context"
	"log"
)

// AutoMigrate creates the queue core schema. The unique (queue_id, position)
// constraint is deferred so renumbering inside a transaction may pass through
// intermediate states; committed state is always dense 0..n-1.
func AutoMigrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS pgcrypto`); err != nil {
		log.Printf("music-hub: migrate pgcrypto: %v", err)
		return err
	}

	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS tracks (
          id             uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          track_id       TEXT NOT NULL,
          platform       TEXT NOT NULL DEFAULT 'unknown',
          name           TEXT NOT NULL DEFAULT '',
          author         TEXT NOT NULL DEFAULT '',
          url            TEXT NOT NULL DEFAULT '',
          track_duration INT NOT NULL DEFAULT 0,
          image_url      TEXT NOT NULL DEFAULT '',
          created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
          UNIQUE (track_id, platform)
      )
    `); err != nil {
		return err
	}

	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS queues (
          id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          user_id    TEXT NOT NULL UNIQUE,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS queue_tracks (
          id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          queue_id   uuid NOT NULL REFERENCES queues(id) ON DELETE CASCADE,
          track_id   uuid NOT NULL REFERENCES tracks(id),
          position   INT NOT NULL,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
          UNIQUE (queue_id, position) DEFERRABLE INITIALLY DEFERRED
      )
    `); err != nil {
		return err
	}

	if _, err := db.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_queue_tracks_queue
      ON queue_tracks(queue_id)
    `); err != nil {
		return err
	}

	return nil
}
