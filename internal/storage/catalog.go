package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fabula-rasa/fabula/internal/models"
)

const bookColumns = `title, author, isbn, tags, length, rating, member, score, date_added, read_date, selection_seq`

// ReadCatalog returns every book in insertion order
func (s *Store) ReadCatalog(ctx context.Context) ([]models.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		return nil, wrap("read catalog", err)
	}
	defer rows.Close()

	books := make([]models.Book, 0)
	for rows.Next() {
		var (
			b             models.Book
			isbn, tags    sql.NullString
			readDate      sql.NullString
			rating, score sql.NullFloat64
			selectionSeq  sql.NullInt64
		)
		if err := rows.Scan(&b.Title, &b.Author, &isbn, &tags, &b.Length, &rating, &b.Member,
			&score, &b.DateAdded, &readDate, &selectionSeq); err != nil {
			return nil, wrap("read catalog", err)
		}

		b.ISBN = models.NoISBN
		if isbn.Valid && strings.TrimSpace(isbn.String) != "" {
			b.ISBN = isbn.String
		}
		b.Tags = models.ParseTags(tags.String)
		b.Rating = rating.Float64
		b.Score = score.Float64
		b.ReadDate = readDate.String
		b.SelectionSeq = selectionSeq.Int64
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("read catalog", err)
	}
	return books, nil
}

// WriteCatalog replaces the stored catalog with books.
//
// Every book is validated before the database is touched. The rows are
// staged in a temporary table and swapped in within one transaction; on
// any failure the transaction is rolled back and the previous catalog
// remains.
func (s *Store) WriteCatalog(ctx context.Context, books []models.Book) error {
	for i, b := range books {
		if err := b.Validate(); err != nil {
			return wrap("write catalog", fmt.Errorf("book %d: %w", i, err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.replace(ctx, books); err != nil {
		return wrap("write catalog", err)
	}
	return nil
}

func (s *Store) replace(ctx context.Context, books []models.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS temp.books_staging`); err != nil {
		return fmt.Errorf("reset staging: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		CREATE TEMP TABLE books_staging (
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			isbn TEXT,
			tags TEXT,
			length INTEGER NOT NULL,
			rating REAL NOT NULL,
			member TEXT NOT NULL,
			score REAL NOT NULL,
			date_added TEXT NOT NULL,
			read_date TEXT,
			selection_seq INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("create staging: %w", err)
	}

	if err := stage(ctx, tx, books); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return fmt.Errorf("clear books: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO books (`+bookColumns+`) SELECT `+bookColumns+` FROM temp.books_staging ORDER BY rowid`); err != nil {
		return fmt.Errorf("copy staged books: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE temp.books_staging`); err != nil {
		return fmt.Errorf("drop staging: %w", err)
	}

	if s.beforeCommit != nil {
		if err := s.beforeCommit(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func stage(ctx context.Context, tx *sql.Tx, books []models.Book) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO temp.books_staging (`+bookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare staging insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range books {
		isbn := b.ISBN
		if strings.TrimSpace(isbn) == "" {
			isbn = models.NoISBN
		}
		var readDate any
		if b.Selected() {
			readDate = b.ReadDate
		}
		if _, err := stmt.ExecContext(ctx, b.Title, b.Author, isbn, models.JoinTags(b.Tags), b.Length,
			b.Rating, b.Member, b.Score, b.DateAdded, readDate, b.SelectionSeq); err != nil {
			return fmt.Errorf("stage %q: %w", b.Title, err)
		}
	}
	return nil
}
