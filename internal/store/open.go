package store

import (
	"context"
	"os"
)

// Open picks the backend from the environment: Postgres when DATABASE_URL is
// set, a local bbolt file otherwise.
func Open(ctx context.Context) (Store, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return OpenPostgres(ctx, url)
	}
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "ticketbot.db"
	}
	return OpenBolt(path)
}
