package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/delfick/workflows-engine/compute"
)

// SQLiteStorage is a SQLite-backed implementation of compute.Storage.
//
// It persists workflows and their computation maps in a single-file
// database. Designed for:
//   - Local workflows that must survive a restart
//   - Development with zero setup (use ":memory:" for throwaway databases)
//
// WAL mode is enabled, and the connection pool is limited to a single
// connection, so reads and writes through one SQLiteStorage are serialized;
// computation upserts are transactional. The
// workflow lock is in-process only, same as every storage in this package —
// multi-host coordination is out of scope.
//
// Schema:
//   - workflows: identifier → WorkflowInformation (JSON)
//   - computations: (identifier, path) → StoredInfo (JSON)
type SQLiteStorage struct {
	db    *sql.DB
	locks *lockTable

	newIdentifier func() string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS workflows (
	identifier TEXT PRIMARY KEY,
	information TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS computations (
	identifier TEXT NOT NULL,
	path TEXT NOT NULL,
	stored TEXT NOT NULL,
	PRIMARY KEY (identifier, path),
	FOREIGN KEY (identifier) REFERENCES workflows(identifier)
);
`

// NewSQLiteStorage opens (creating if needed) the database at path and
// migrates the schema. Use ":memory:" for an in-memory database.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStorage{
		db:            db,
		locks:         newLockTable(),
		newIdentifier: compute.NewIdentifierString,
	}, nil
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// HoldWorkflowLock acquires the exclusive per-workflow lock.
func (s *SQLiteStorage) HoldWorkflowLock(ctx context.Context, identifier compute.WorkflowIdentifier) (func(), error) {
	return s.locks.acquire(ctx, identifier)
}

// StoreNewWorkflow allocates a fresh identifier, persists the initial
// information and returns the identifier.
func (s *SQLiteStorage) StoreNewWorkflow(ctx context.Context, saver compute.NewWorkflowSaver) (compute.WorkflowIdentifier, error) {
	identifier := compute.WorkflowIdentifier(s.newIdentifier())
	information, err := saver.ForStorage(identifier)
	if err != nil {
		return "", err
	}
	if err := s.UpsertWorkflowInformation(ctx, identifier, information); err != nil {
		return "", err
	}
	return identifier, nil
}

// RetrieveWorkflowInformation returns the persisted information or a
// WorkflowNotFoundError.
func (s *SQLiteStorage) RetrieveWorkflowInformation(ctx context.Context, identifier compute.WorkflowIdentifier) (compute.WorkflowInformation, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx,
		"SELECT information FROM workflows WHERE identifier = ?", identifier.String(),
	).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return compute.WorkflowInformation{}, &compute.WorkflowNotFoundError{Identifier: identifier}
	}
	if err != nil {
		return compute.WorkflowInformation{}, fmt.Errorf("failed to query workflow: %w", err)
	}

	var information compute.WorkflowInformation
	if err := json.Unmarshal([]byte(encoded), &information); err != nil {
		return compute.WorkflowInformation{}, fmt.Errorf("failed to decode workflow information: %w", err)
	}
	return information, nil
}

// UpsertWorkflowInformation overwrites the persisted information.
func (s *SQLiteStorage) UpsertWorkflowInformation(ctx context.Context, identifier compute.WorkflowIdentifier, information compute.WorkflowInformation) error {
	encoded, err := json.Marshal(information)
	if err != nil {
		return fmt.Errorf("failed to encode workflow information: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (identifier, information) VALUES (?, ?)
		ON CONFLICT(identifier) DO UPDATE SET information = excluded.information`,
		identifier.String(), string(encoded))
	if err != nil {
		return fmt.Errorf("failed to upsert workflow: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) workflowExists(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, identifier compute.WorkflowIdentifier) error {
	var one int
	err := q.QueryRowContext(ctx,
		"SELECT 1 FROM workflows WHERE identifier = ?", identifier.String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return &compute.WorkflowNotFoundError{Identifier: identifier}
	}
	if err != nil {
		return fmt.Errorf("failed to query workflow: %w", err)
	}
	return nil
}

// RetrieveComputations returns the stored info for every path under the
// workflow, or a WorkflowNotFoundError when the identifier is unknown.
func (s *SQLiteStorage) RetrieveComputations(ctx context.Context, identifier compute.WorkflowIdentifier) (map[compute.PathKey]compute.StoredInfo, error) {
	if err := s.workflowExists(ctx, s.db, identifier); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT path, stored FROM computations WHERE identifier = ?", identifier.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query computations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[compute.PathKey]compute.StoredInfo)
	for rows.Next() {
		var path, encoded string
		if err := rows.Scan(&path, &encoded); err != nil {
			return nil, fmt.Errorf("failed to scan computation row: %w", err)
		}
		var info compute.StoredInfo
		if err := json.Unmarshal([]byte(encoded), &info); err != nil {
			return nil, fmt.Errorf("failed to decode stored info at %s: %w", path, err)
		}
		out[compute.PathKey(path)] = info
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate computations: %w", err)
	}
	return out, nil
}

// UpsertComputations merges the provided map into the stored one by path,
// in a single transaction.
func (s *SQLiteStorage) UpsertComputations(ctx context.Context, identifier compute.WorkflowIdentifier, storedInfos map[compute.PathKey]compute.StoredInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.workflowExists(ctx, tx, identifier); err != nil {
		return err
	}

	for key, info := range storedInfos {
		encoded, err := json.Marshal(info)
		if err != nil {
			return fmt.Errorf("failed to encode stored info at %s: %w", key, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO computations (identifier, path, stored) VALUES (?, ?, ?)
			ON CONFLICT(identifier, path) DO UPDATE SET stored = excluded.stored`,
			identifier.String(), string(key), string(encoded))
		if err != nil {
			return fmt.Errorf("failed to upsert computation at %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit computations: %w", err)
	}
	return nil
}
