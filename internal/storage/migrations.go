package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// newProvider builds the migration provider: the base table comes from the
// embedded SQL, later steps inspect the live schema and so run as Go.
func newProvider(db *sql.DB) (*goose.Provider, error) {
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations sub-fs: %w", err)
	}

	return goose.NewProvider(goose.DialectSQLite3, db, migrations,
		goose.WithGoMigrations(
			goose.NewGoMigration(2,
				&goose.GoFunc{RunTx: addIdentifierColumns},
				&goose.GoFunc{RunTx: noop},
			),
			goose.NewGoMigration(3,
				&goose.GoFunc{RunTx: addSelectionSeq},
				&goose.GoFunc{RunTx: noop},
			),
		),
	)
}

func noop(context.Context, *sql.Tx) error { return nil }

func columns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &primaryKey); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// addIdentifierColumns brings databases from releases without ISBN or tag
// support up to date and fills the gaps with their defaults.
func addIdentifierColumns(ctx context.Context, tx *sql.Tx) error {
	cols, err := columns(ctx, tx, "books")
	if err != nil {
		return fmt.Errorf("inspect books: %w", err)
	}

	for _, col := range []string{"isbn", "tags"} {
		if cols[col] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "ALTER TABLE books ADD COLUMN "+col+" TEXT"); err != nil {
			return fmt.Errorf("add %s column: %w", col, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE books SET isbn = 'N/A' WHERE isbn IS NULL OR TRIM(isbn) = ''`); err != nil {
		return fmt.Errorf("backfill isbn: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE books SET tags = '' WHERE tags IS NULL`); err != nil {
		return fmt.Errorf("backfill tags: %w", err)
	}
	return nil
}

// addSelectionSeq numbers existing selections oldest first so that
// selections sharing a read date keep a stable order.
func addSelectionSeq(ctx context.Context, tx *sql.Tx) error {
	cols, err := columns(ctx, tx, "books")
	if err != nil {
		return fmt.Errorf("inspect books: %w", err)
	}

	if !cols["selection_seq"] {
		if _, err := tx.ExecContext(ctx, `ALTER TABLE books ADD COLUMN selection_seq INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("add selection_seq column: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE books SET selection_seq = (
			SELECT COUNT(*) FROM books AS prior
			WHERE prior.read_date IS NOT NULL AND prior.read_date != ''
			  AND (prior.read_date < books.read_date
			       OR (prior.read_date = books.read_date AND prior.id <= books.id))
		)
		WHERE read_date IS NOT NULL AND read_date != '' AND selection_seq = 0
	`)
	if err != nil {
		return fmt.Errorf("backfill selection_seq: %w", err)
	}
	return nil
}
