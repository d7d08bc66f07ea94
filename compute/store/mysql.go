package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/delfick/workflows-engine/compute"
)

// MySQLStorage is a MySQL-backed implementation of compute.Storage for
// deployments with a shared database server.
//
// Same contracts and the same in-process workflow lock as the other
// storages; multiple hosts sharing the database still need external
// coordination, which is out of scope here.
type MySQLStorage struct {
	db    *sql.DB
	locks *lockTable

	newIdentifier func() string
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS workflows (
		identifier VARCHAR(64) PRIMARY KEY,
		information JSON NOT NULL
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS computations (
		identifier VARCHAR(64) NOT NULL,
		path VARCHAR(512) NOT NULL,
		stored JSON NOT NULL,
		PRIMARY KEY (identifier, path)
	) ENGINE=InnoDB`,
}

// NewMySQLStorage connects with the given DSN (e.g.
// "user:pass@tcp(localhost:3306)/workflows?parseTime=true") and migrates
// the schema.
func NewMySQLStorage(dsn string) (*MySQLStorage, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}
	for _, stmt := range mysqlSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	return &MySQLStorage{
		db:            db,
		locks:         newLockTable(),
		newIdentifier: compute.NewIdentifierString,
	}, nil
}

// Close closes the underlying database.
func (s *MySQLStorage) Close() error {
	return s.db.Close()
}

// HoldWorkflowLock acquires the exclusive per-workflow lock.
func (s *MySQLStorage) HoldWorkflowLock(ctx context.Context, identifier compute.WorkflowIdentifier) (func(), error) {
	return s.locks.acquire(ctx, identifier)
}

// StoreNewWorkflow allocates a fresh identifier, persists the initial
// information and returns the identifier.
func (s *MySQLStorage) StoreNewWorkflow(ctx context.Context, saver compute.NewWorkflowSaver) (compute.WorkflowIdentifier, error) {
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
func (s *MySQLStorage) RetrieveWorkflowInformation(ctx context.Context, identifier compute.WorkflowIdentifier) (compute.WorkflowInformation, error) {
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
func (s *MySQLStorage) UpsertWorkflowInformation(ctx context.Context, identifier compute.WorkflowIdentifier, information compute.WorkflowInformation) error {
	encoded, err := json.Marshal(information)
	if err != nil {
		return fmt.Errorf("failed to encode workflow information: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (identifier, information) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE information = VALUES(information)`,
		identifier.String(), string(encoded))
	if err != nil {
		return fmt.Errorf("failed to upsert workflow: %w", err)
	}
	return nil
}

func (s *MySQLStorage) workflowExists(ctx context.Context, q interface {
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
func (s *MySQLStorage) RetrieveComputations(ctx context.Context, identifier compute.WorkflowIdentifier) (map[compute.PathKey]compute.StoredInfo, error) {
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
func (s *MySQLStorage) UpsertComputations(ctx context.Context, identifier compute.WorkflowIdentifier, storedInfos map[compute.PathKey]compute.StoredInfo) error {
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
			ON DUPLICATE KEY UPDATE stored = VALUES(stored)`,
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
