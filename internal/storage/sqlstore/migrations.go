package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// sqliteMigrations contains the SQL statements to set up the SQLite schema.
// IMPORTANT: parents must be created before children due to foreign keys.
var sqliteMigrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		"CREATE TABLE IF NOT EXISTS `groups` (" + `
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			icon TEXT,
			created_by TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS group_members (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			user_id TEXT,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			status TEXT NOT NULL CHECK (status IN ('pending', 'joined', 'declined')),
			balance TEXT NOT NULL DEFAULT '0',
			created_at INTEGER NOT NULL,
			FOREIGN KEY (group_id) REFERENCES ` + "`groups`" + `(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS group_expenses (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			paid_by_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			description TEXT NOT NULL,
			split_type TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (group_id) REFERENCES ` + "`groups`" + `(id) ON DELETE CASCADE,
			FOREIGN KEY (paid_by_id) REFERENCES group_members(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS splits (
			id TEXT PRIMARY KEY,
			expense_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			settled INTEGER NOT NULL DEFAULT 0,
			settled_at INTEGER,
			FOREIGN KEY (expense_id) REFERENCES group_expenses(id) ON DELETE CASCADE,
			FOREIGN KEY (member_id) REFERENCES group_members(id) ON DELETE CASCADE
		)`,
		// A linked user holds at most one non-declined membership per group.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_group_members_active_user
			ON group_members(group_id, user_id)
			WHERE user_id IS NOT NULL AND status != 'declined'`,
		`CREATE INDEX IF NOT EXISTS idx_group_members_group_id ON group_members(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_group_expenses_group_id ON group_expenses(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_splits_expense_id ON splits(expense_id)`,
		`CREATE INDEX IF NOT EXISTS idx_splits_member_id ON splits(member_id)`,
	},
}

// mysqlMigrations mirrors sqliteMigrations for InnoDB. MySQL has no partial
// indexes, so the one-active-membership rule is enforced by the ledger under
// the group row lock.
var mysqlMigrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			display_name VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		) ENGINE=InnoDB`,
		"CREATE TABLE IF NOT EXISTS `groups` (" + `
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			icon VARCHAR(255),
			created_by VARCHAR(36) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at BIGINT NOT NULL
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS group_members (
			id VARCHAR(36) PRIMARY KEY,
			group_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(36),
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			phone VARCHAR(32),
			status ENUM('pending', 'joined', 'declined') NOT NULL,
			balance DECIMAL(19,4) NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL,
			INDEX idx_group_members_group_id (group_id),
			INDEX idx_group_members_user_id (user_id),
			FOREIGN KEY (group_id) REFERENCES ` + "`groups`" + `(id) ON DELETE CASCADE
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS group_expenses (
			id VARCHAR(36) PRIMARY KEY,
			group_id VARCHAR(36) NOT NULL,
			paid_by_id VARCHAR(36) NOT NULL,
			amount DECIMAL(19,4) NOT NULL,
			description VARCHAR(512) NOT NULL,
			split_type VARCHAR(16) NOT NULL,
			created_at BIGINT NOT NULL,
			INDEX idx_group_expenses_group_id (group_id),
			FOREIGN KEY (group_id) REFERENCES ` + "`groups`" + `(id) ON DELETE CASCADE,
			FOREIGN KEY (paid_by_id) REFERENCES group_members(id) ON DELETE CASCADE
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS splits (
			id VARCHAR(36) PRIMARY KEY,
			expense_id VARCHAR(36) NOT NULL,
			member_id VARCHAR(36) NOT NULL,
			amount DECIMAL(19,4) NOT NULL,
			settled BOOLEAN NOT NULL DEFAULT FALSE,
			settled_at BIGINT,
			INDEX idx_splits_expense_id (expense_id),
			INDEX idx_splits_member_id (member_id),
			FOREIGN KEY (expense_id) REFERENCES group_expenses(id) ON DELETE CASCADE,
			FOREIGN KEY (member_id) REFERENCES group_members(id) ON DELETE CASCADE
		) ENGINE=InnoDB`,
	},
}

// runMigrations brings the schema up to the latest version. Applied versions
// are tracked in schema_version so the function is idempotent.
func runMigrations(ctx context.Context, db *sql.DB, d *dialect) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	version, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for i := version; i < len(d.migrations); i++ {
		if err := applyMigration(ctx, db, i+1, d.migrations[i]); err != nil {
			return err
		}
		slog.Info("Applied migration", "dialect", d.name, "version", i+1)
	}
	return nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func applyMigration(ctx context.Context, db *sql.DB, version int, stmts []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", version, err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", version, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", version, err)
	}
	return nil
}
