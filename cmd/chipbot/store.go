package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/susu3304/chipbot/internal/db"
	"github.com/susu3304/chipbot/internal/sqlitedb"
	"github.com/susu3304/chipbot/internal/store"
)

// openStore picks the backend from the URL scheme: postgres:// or
// postgresql://, sqlite://path, or memory:// for a throwaway store.
func openStore(ctx context.Context, url string) (store.Store, error) {
	switch {
	case strings.HasPrefix(url, "memory://"):
		return store.NewMemory(), nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("sqlite URL needs a path, e.g. sqlite://chips.db")
		}
		return sqlitedb.Open(ctx, path)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		database, err := db.New(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.RunMigrations(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return database, nil
	}
	return nil, fmt.Errorf("unsupported DATABASE_URL scheme in %q", redact(url))
}

// redact hides credentials in a URL before it reaches a log line.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return "…"
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "…" + rest[at:]
	}
	return scheme + "://" + rest
}
