package db

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/vobstats/internal/sql"
)

// applyMigrations runs every embedded migration for dialect in filename
// order. All DDL uses IF NOT EXISTS so migrations are idempotent.
func applyMigrations(ctx context.Context, dialect string, exec func(context.Context, string) error, log zerolog.Logger) error {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(embedsql.Migrations, dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename to ensure correct ordering.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	applied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		data, err := fs.ReadFile(embedsql.Migrations, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		log.Info().Str("migration", name).Str("dialect", dialect).Msg("applying migration")
		if err := exec(ctx, string(data)); err != nil {
			return &StorageError{Op: "migrate " + name, Err: err}
		}
		applied++
	}

	log.Info().Int("count", applied).Msg("all migrations applied")
	return nil
}
