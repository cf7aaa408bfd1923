package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationPool is the minimal interface required to run migrations.
// *pgxpool.Pool satisfies this interface.
type MigrationPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

const maxConns = 10

// Connect opens a pgxpool connection and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	if cfg.MaxConns > maxConns {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pgxpool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

const createLedger = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const claimMigration = `INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`

// RunMigrations applies every .sql file in migrationsDir, in lexicographic
// order, that is not yet recorded in schema_migrations. Each file runs in its
// own transaction together with its ledger row. It returns the number of
// files applied.
func RunMigrations(ctx context.Context, pool MigrationPool, migrationsDir string) (int, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return 0, fmt.Errorf("reading migrations dir %s: %w", migrationsDir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return 0, nil
	}
	sort.Strings(files)

	if err := runInTx(ctx, pool, func(tx pgx.Tx) (bool, error) {
		_, err := tx.Exec(ctx, createLedger)
		return err == nil, err
	}); err != nil {
		return 0, fmt.Errorf("creating migration ledger: %w", err)
	}

	applied := 0
	for _, name := range files {
		sql, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return applied, fmt.Errorf("reading migration %s: %w", name, err)
		}

		var ran bool
		err = runInTx(ctx, pool, func(tx pgx.Tx) (bool, error) {
			tag, err := tx.Exec(ctx, claimMigration, name)
			if err != nil {
				return false, err
			}
			if tag.RowsAffected() == 0 {
				return false, nil
			}
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return false, err
			}
			ran = true
			return true, nil
		})
		if err != nil {
			return applied, fmt.Errorf("executing migration %s: %w", name, err)
		}
		if ran {
			applied++
		}
	}

	return applied, nil
}

// runInTx runs fn in a transaction. It commits when fn reports true and
// rolls back otherwise.
func runInTx(ctx context.Context, pool MigrationPool, fn func(tx pgx.Tx) (bool, error)) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	commit, err := fn(tx)
	if err != nil || !commit {
		_ = tx.Rollback(ctx)
		if err != nil {
			return fmt.Errorf("executing SQL: %w", err)
		}
		return nil
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
