package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	cerrors "github.com/rohankatakam/histblame/internal/errors"
)

const documentsSchema = `
	CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL
	);
`

const upsertDocument = `
	INSERT INTO documents (name, body) VALUES (?, ?)
	ON CONFLICT (name) DO UPDATE SET body = excluded.body
`

// SQLStore keeps documents in a single table of a SQLite or PostgreSQL
// database
type SQLStore struct {
	db     *sqlx.DB
	driver string
	logger logrus.FieldLogger
}

// NewSQLiteStore opens (or creates) a SQLite database at path
func NewSQLiteStore(path string, logger logrus.FieldLogger) (*SQLStore, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, cerrors.FileSystemErrorf(err, "create database directory")
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, cerrors.StorageErrorf(err, "connect to sqlite")
	}
	db.Exec("PRAGMA journal_mode = WAL")

	return newSQLStore(db, "sqlite3", logger)
}

// NewPostgresStore connects to PostgreSQL through the pgx stdlib driver
func NewPostgresStore(dsn string, logger logrus.FieldLogger) (*SQLStore, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, cerrors.StorageErrorf(err, "connect to postgres")
	}

	// Configure connection pool
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQLStore(db, "pgx", logger)
}

func newSQLStore(db *sqlx.DB, driver string, logger logrus.FieldLogger) (*SQLStore, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if _, err := db.Exec(documentsSchema); err != nil {
		db.Close()
		return nil, cerrors.StorageErrorf(err, "init schema")
	}

	return &SQLStore{db: db, driver: driver, logger: logger}, nil
}

// Write upserts every document of the batch in one transaction
func (s *SQLStore) Write(ctx context.Context, batch *Batch) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return cerrors.StorageErrorf(err, "begin transaction")
	}
	defer tx.Rollback()

	query := tx.Rebind(upsertDocument)
	for _, doc := range batch.Documents() {
		if _, err := tx.ExecContext(ctx, query, doc.Name, string(doc.Body)); err != nil {
			return cerrors.StorageErrorf(err, "save %s", doc.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return cerrors.StorageErrorf(err, "commit transaction")
	}

	s.logger.WithFields(logrus.Fields{
		"driver":    s.driver,
		"documents": batch.Len(),
	}).Debug("Wrote documents")
	return nil
}

// Read returns the stored body of a document
func (s *SQLStore) Read(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := s.db.GetContext(ctx, &body, s.db.Rebind(`SELECT body FROM documents WHERE name = ?`), name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, cerrors.StorageErrorf(err, "read %s", name)
	}
	return []byte(body), nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
