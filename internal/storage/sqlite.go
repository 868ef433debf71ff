package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/keepmind9/slackmech/pkg/constants"
)

// SQLite is a Storage backed by a sqlite database file. Expiry is encoded
// as a unix timestamp column and enforced in the read queries.
type SQLite struct {
	path string
	db   *sql.DB
}

// NewSQLite creates a sqlite storage for the given database file. An empty
// path uses the default file in the working directory.
func NewSQLite(path string) *SQLite {
	if path == "" {
		path = constants.DefaultSQLitePath
	}
	return &SQLite{path: path}
}

// Init opens the database and creates the storage table if needed.
func (s *SQLite) Init(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database %s: %w", s.path, err)
	}
	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY on concurrent handler writes
	db.SetMaxOpenConns(1)

	createStmt := `CREATE TABLE IF NOT EXISTS ` + constants.StorageTableName + ` (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER
	)`
	if _, err := db.ExecContext(ctx, createStmt); err != nil {
		db.Close()
		return fmt.Errorf("failed to create storage table: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Set inserts or replaces a key, stamping an absolute expiry when a ttl is
// given.
func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt interface{}
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO `+constants.StorageTableName+` (key, value, expires_at) VALUES (?, ?, ?)`,
		key, value, expiresAt,
	)
	return err
}

// Get returns the value for a key, or nil when the key is absent or its
// expiry has passed.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM `+constants.StorageTableName+` WHERE key = ? AND (expires_at > ? OR expires_at IS NULL)`,
		key, time.Now().Unix(),
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes a key.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM `+constants.StorageTableName+` WHERE key = ?`, key)
	return err
}

// Has reports whether a key is present and not expired.
func (s *SQLite) Has(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+constants.StorageTableName+` WHERE key = ? AND (expires_at > ? OR expires_at IS NULL))`,
		key, time.Now().Unix(),
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetExpire returns the expiry of a live key, or the zero time when the
// key is absent, expired, or stored without expiry.
func (s *SQLite) GetExpire(ctx context.Context, key string) (time.Time, error) {
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM `+constants.StorageTableName+` WHERE key = ? AND (expires_at > ? OR expires_at IS NULL)`,
		key, time.Now().Unix(),
	).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if !expiresAt.Valid {
		return time.Time{}, nil
	}
	return time.Unix(expiresAt.Int64, 0), nil
}

// Size returns the number of rows in the storage table.
func (s *SQLite) Size(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+constants.StorageTableName).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
