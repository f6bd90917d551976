package permission

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/icebergd/coreberg/pkg/errors"
)

var (
	ErrStoreInitFailed = errors.MustNewCode("permission.store_init_failed")
	ErrStoreExecFailed = errors.MustNewCode("permission.store_exec_failed")
	ErrStoreScanFailed = errors.MustNewCode("permission.store_scan_failed")
)

// SQLiteStore is a database/sql-backed Store keeping all grants in a
// single table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a grants table at the
// given SQLite DSN/path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.New(ErrStoreInitFailed, "failed to open permission store database", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS grants (
		id TEXT PRIMARY KEY,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		principal_type TEXT NOT NULL,
		principal_id TEXT NOT NULL,
		level INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		created_by TEXT NOT NULL,
		expires_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_grants_principal ON grants (principal_type, principal_id);
	CREATE INDEX IF NOT EXISTS idx_grants_resource ON grants (resource_type, resource_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.New(ErrStoreInitFailed, "failed to create grants table", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) GrantsForPrincipal(ctx context.Context, principal Principal) ([]Grant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, resource_type, resource_id, principal_type, principal_id, level, created_at, created_by, expires_at
		 FROM grants WHERE principal_type = ? AND principal_id = ?`,
		string(principal.Type), principal.ID)
	if err != nil {
		return nil, errors.New(ErrStoreScanFailed, "failed to query grants for principal", err)
	}
	defer rows.Close()
	return scanGrants(rows)
}

func (s *SQLiteStore) GrantsForResource(ctx context.Context, resourceType ResourceType, resourceID string) ([]Grant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, resource_type, resource_id, principal_type, principal_id, level, created_at, created_by, expires_at
		 FROM grants WHERE resource_type = ? AND resource_id = ?`,
		string(resourceType), resourceID)
	if err != nil {
		return nil, errors.New(ErrStoreScanFailed, "failed to query grants for resource", err)
	}
	defer rows.Close()
	return scanGrants(rows)
}

func (s *SQLiteStore) CreateGrant(ctx context.Context, g Grant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.New(ErrStoreExecFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var expiresAt *int64
	if g.ExpiresAt != nil {
		us := g.ExpiresAt.UnixMicro()
		expiresAt = &us
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO grants (id, resource_type, resource_id, principal_type, principal_id, level, created_at, created_by, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, string(g.ResourceType), g.ResourceID, string(g.PrincipalType), g.PrincipalID, int(g.Level),
		g.CreatedAt.UnixMicro(), g.CreatedBy, expiresAt)
	if err != nil {
		return errors.New(ErrStoreExecFailed, "failed to insert grant", err).AddContext("id", g.ID)
	}
	if err := tx.Commit(); err != nil {
		return errors.New(ErrStoreExecFailed, "failed to commit grant insert", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteGrant(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grants WHERE id = ?`, id)
	if err != nil {
		return errors.New(ErrStoreExecFailed, "failed to delete grant", err).AddContext("id", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.New(ErrStoreExecFailed, "failed to read rows affected", err)
	}
	if n == 0 {
		return errors.New(ErrGrantNotFound, "grant not found", nil).AddContext("id", id)
	}
	return nil
}

func (s *SQLiteStore) DeleteGrantsForResource(ctx context.Context, resourceType ResourceType, resourceID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM grants WHERE resource_type = ? AND resource_id = ?`,
		string(resourceType), resourceID)
	if err != nil {
		return errors.New(ErrStoreExecFailed, "failed to delete grants for resource", err).AddContext("resource_id", resourceID)
	}
	return nil
}

func scanGrants(rows *sql.Rows) ([]Grant, error) {
	var out []Grant
	for rows.Next() {
		var (
			g                           Grant
			resourceType, principalType string
			level                       int
			createdAtUs                 int64
			expiresAtUs                 *int64
		)
		if err := rows.Scan(&g.ID, &resourceType, &g.ResourceID, &principalType, &g.PrincipalID,
			&level, &createdAtUs, &g.CreatedBy, &expiresAtUs); err != nil {
			return nil, errors.New(ErrStoreScanFailed, "failed to scan grant row", err)
		}
		g.ResourceType = ResourceType(resourceType)
		g.PrincipalType = PrincipalType(principalType)
		g.Level = Level(level)
		g.CreatedAt = time.UnixMicro(createdAtUs)
		if expiresAtUs != nil {
			t := time.UnixMicro(*expiresAtUs)
			g.ExpiresAt = &t
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
