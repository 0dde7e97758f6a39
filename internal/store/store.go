package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the user_version schema.sql stamps on a new archive.
const schemaVersion = 1

// ErrUnsupportedVersion is returned when an archive was written by a newer
// schema than this build understands.
var ErrUnsupportedVersion = errors.New("unsupported archive version")

// Store is the archive of recorded algorithm runs.
type Store struct {
	db *sql.DB
}

// Open creates or opens the archive at path. ":memory:" opens a private
// in-memory archive that lives until Close.
//
// Every connection enforces foreign keys and waits up to five seconds for a
// lock. File archives use WAL so replay and trace can read while record writes.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}

	// One connection keeps an in-memory archive alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// dataSourceName builds a go-sqlite3 URI whose underscore parameters are
// applied to every new connection.
func dataSourceName(path string) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "5000")
	if path != ":memory:" {
		params.Set("_journal_mode", "WAL")
		params.Set("_synchronous", "NORMAL")
	}
	return "file:" + path + "?" + params.Encode()
}

// initSchema creates the tables of a new archive and rejects archives from
// a newer schema.
func initSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	switch {
	case version == 0:
		if _, err := db.Exec(schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	case version > schemaVersion:
		return fmt.Errorf("%w: %d (this build reads %d)", ErrUnsupportedVersion, version, schemaVersion)
	}
	return nil
}
