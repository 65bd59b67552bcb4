package auth

import (
	"context"
)

// AutoMigrate creates the accounts table. The queues table referenced by
// createUser lives in the queue package's migration; run that one first.
func AutoMigrate(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS auth_users (
          id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          email      TEXT NOT NULL UNIQUE,
          password   TEXT NOT NULL,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `)
	return err
}
