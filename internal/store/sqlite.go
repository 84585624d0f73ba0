package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite (pure-Go driver).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at config.Path.
// An empty path yields an in-memory database.
func NewSQLiteStore(config Config) (*SQLiteStore, error) {
	path := config.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS launched_processes(
		name TEXT PRIMARY KEY,
		pid INTEGER NOT NULL,
		start_unix INTEGER NOT NULL DEFAULT 0,
		last_status TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO launched_processes(name, pid, start_unix, last_status, updated_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			pid=excluded.pid,
			start_unix=excluded.start_unix,
			last_status=excluded.last_status,
			updated_at=excluded.updated_at;`,
		rec.Name, rec.PID, rec.StartUnix, rec.LastStatus, rec.UpdatedAt.UTC())
	return err
}

func (s *SQLiteStore) GetByName(ctx context.Context, name string) (Record, error) {
	var rec Record
	row := s.db.QueryRowContext(ctx, `
		SELECT name, pid, start_unix, last_status, updated_at
		FROM launched_processes WHERE name = ?;`, name)
	err := row.Scan(&rec.Name, &rec.PID, &rec.StartUnix, &rec.LastStatus, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM launched_processes WHERE name = ?;`, name)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
