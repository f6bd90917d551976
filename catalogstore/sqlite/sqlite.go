// Package sqlite implements the commit package's StorageBackend and
// CatalogPointerStore collaborator contracts on top of database/sql
// and SQLite, giving a single-file durable catalog.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/icebergd/coreberg/pkg/errors"
)

// DB wraps a catalog-store SQLite connection. One DB backs both a
// Storage (blob store) and a Pointers (catalog pointer store); the two
// are split into separate types so each can satisfy exactly one of the
// commit package's two collaborator interfaces.
type DB struct {
	conn *sql.DB
}

// Open creates (or reuses) the SQLite database at path, creating its
// parent directory and tables as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.New(ErrDatabaseInitFailed, "failed to create catalog-store directory", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.New(ErrDatabaseOpenFailed, "failed to open catalog-store database", err)
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) init() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS objects (
		path TEXT PRIMARY KEY,
		data BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS pointers (
		table_id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		version INTEGER NOT NULL
	);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return errors.New(ErrDatabaseInitFailed, "failed to create catalog-store tables", err)
	}
	return nil
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Storage returns a commit.StorageBackend backed by this DB's objects
// table.
func (db *DB) Storage() *Storage {
	return &Storage{conn: db.conn}
}

// Pointers returns a commit.CatalogPointerStore backed by this DB's
// pointers table.
func (db *DB) Pointers() *Pointers {
	return &Pointers{conn: db.conn}
}

// Storage is a SQLite-backed blob store keyed by path.
type Storage struct {
	conn *sql.DB
}

func (s *Storage) Get(ctx context.Context, path string) ([]byte, bool, error) {
	var data []byte
	err := s.conn.QueryRowContext(ctx, `SELECT data FROM objects WHERE path = ?`, path).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.New(ErrDatabaseScanFailed, "failed to read object", err).AddContext("path", path)
	}
	return data, true, nil
}

func (s *Storage) PutIfAbsent(ctx context.Context, path string, data []byte) error {
	_, err := s.conn.ExecContext(ctx, `INSERT INTO objects (path, data) VALUES (?, ?)`, path, data)
	if err != nil {
		return errors.New(ErrDatabaseExecFailed, "failed to write object (path may already exist)", err).AddContext("path", path)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, path string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM objects WHERE path = ?`, path); err != nil {
		return errors.New(ErrDatabaseExecFailed, "failed to delete object", err).AddContext("path", path)
	}
	return nil
}

func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT path FROM objects WHERE path LIKE ? ESCAPE '\'`, escapeLikePrefix(prefix)+"%")
	if err != nil {
		return nil, errors.New(ErrDatabaseScanFailed, "failed to list objects", err).AddContext("prefix", prefix)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errors.New(ErrDatabaseScanFailed, "failed to scan object path", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM objects WHERE path = ?`, path).Scan(&count)
	if err != nil {
		return false, errors.New(ErrDatabaseScanFailed, "failed to check object existence", err).AddContext("path", path)
	}
	return count > 0, nil
}

func escapeLikePrefix(prefix string) string {
	out := make([]byte, 0, len(prefix))
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}

// Pointers is a SQLite-backed CatalogPointerStore.
type Pointers struct {
	conn *sql.DB
}

func (p *Pointers) LoadPointer(ctx context.Context, tableID string) (string, int, bool, error) {
	var path string
	var version int
	err := p.conn.QueryRowContext(ctx, `SELECT path, version FROM pointers WHERE table_id = ?`, tableID).Scan(&path, &version)
	if err == sql.ErrNoRows {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, errors.New(ErrDatabaseScanFailed, "failed to load catalog pointer", err).AddContext("table_id", tableID)
	}
	return path, version, true, nil
}

// CompareAndSwapPointer implements the CAS via a single conditional
// statement per branch (insert-if-absent for version 0, update-if-match
// otherwise) and checks rows-affected to detect a lost race.
func (p *Pointers) CompareAndSwapPointer(ctx context.Context, tableID string, expectedVersion int, newPath string, newVersion int) (bool, error) {
	if expectedVersion == 0 {
		res, err := p.conn.ExecContext(ctx,
			`INSERT INTO pointers (table_id, path, version) SELECT ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM pointers WHERE table_id = ?)`,
			tableID, newPath, newVersion, tableID)
		if err != nil {
			return false, errors.New(ErrDatabaseExecFailed, "failed to insert catalog pointer", err).AddContext("table_id", tableID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, errors.New(ErrDatabaseExecFailed, "failed to read rows affected", err)
		}
		return n == 1, nil
	}

	res, err := p.conn.ExecContext(ctx,
		`UPDATE pointers SET path = ?, version = ? WHERE table_id = ? AND version = ?`,
		newPath, newVersion, tableID, expectedVersion)
	if err != nil {
		return false, errors.New(ErrDatabaseExecFailed, "failed to update catalog pointer", err).AddContext("table_id", tableID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.New(ErrDatabaseExecFailed, "failed to read rows affected", err)
	}
	return n == 1, nil
}
