package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The externally owned lk table (auth, cash) is deliberately absent here:
// its schema belongs to the account system, not to this service. Only the
// grant audit table is managed.
var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS bonus_grants (
		id UUID PRIMARY KEY,
		auth TEXT NOT NULL,
		amount INTEGER NOT NULL,
		granted_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bonus_grants_auth ON bonus_grants (auth, granted_at)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
