package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meikuraledutech/flowedit"
)

const latestDAGQuery = `
SELECT id, version, subversion, status, name, description, steps, input_schema
FROM flow_dags
WHERE id = $1
ORDER BY version DESC, subversion DESC
LIMIT 1`

// CreateDAG saves a new DAG document as version 1.1 in draft status,
// replacing any previous rows for the same id. A document without an ID
// gets an auto-generated UUID. Returns flowedit.ErrCycleDetected if the
// steps do not form a DAG.
func (s *PGStore) CreateDAG(ctx context.Context, d *flowedit.DAG) (*flowedit.DAG, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	d.Version = 1
	d.Subversion = 1
	d.Status = flowedit.StatusDraft

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("flowedit: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Replace semantics: clear any existing document under this id.
	if _, err := tx.Exec(ctx, `DELETE FROM flow_dags WHERE id = $1`, d.ID); err != nil {
		return nil, fmt.Errorf("flowedit: delete versions: %w", err)
	}

	if err := insertVersion(ctx, tx, d); err != nil {
		return nil, err
	}
	if err := replaceAdapters(ctx, tx, d); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("flowedit: commit: %w", err)
	}

	return d, nil
}

// GetDAG retrieves the latest version of a DAG document with its adapters.
// Returns nil, nil if the id is unknown.
func (s *PGStore) GetDAG(ctx context.Context, dagID string) (*flowedit.DAG, error) {
	d, err := scanDAG(s.db.QueryRow(ctx, latestDAGQuery, dagID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	adapters, err := s.listAdapters(ctx, dagID)
	if err != nil {
		return nil, err
	}
	d.Adapters = adapters

	return d, nil
}

// ListDAGs returns the latest version of every document, ordered by id.
// Returns an empty slice (not nil) if none exist.
func (s *PGStore) ListDAGs(ctx context.Context) ([]flowedit.DAG, error) {
	rows, err := s.db.Query(ctx, `
SELECT DISTINCT ON (id) id, version, subversion, status, name, description, steps, input_schema
FROM flow_dags
ORDER BY id, version DESC, subversion DESC`)
	if err != nil {
		return nil, fmt.Errorf("flowedit: list dags: %w", err)
	}
	defer rows.Close()

	dags := []flowedit.DAG{}
	for rows.Next() {
		d, err := scanDAG(rows)
		if err != nil {
			return nil, err
		}
		adapters, err := s.listAdapters(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		d.Adapters = adapters
		dags = append(dags, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowedit: rows dags: %w", err)
	}

	return dags, nil
}

// UpdateDAG stores a new subversion of an existing document and replaces
// its adapters. The edit always lands as a draft; version numbering is
// owned by the store, not the caller. Returns flowedit.ErrDAGNotFound if
// the document was never created, flowedit.ErrCycleDetected if the steps
// do not form a DAG.
func (s *PGStore) UpdateDAG(ctx context.Context, d *flowedit.DAG) (*flowedit.DAG, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	latest, err := scanDAG(s.db.QueryRow(ctx, latestDAGQuery, d.ID))
	if err != nil {
		if isNoRows(err) {
			return nil, flowedit.ErrDAGNotFound
		}
		return nil, err
	}

	d.Version = latest.Version
	d.Subversion = latest.Subversion + 1
	d.Status = flowedit.StatusDraft

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("flowedit: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertVersion(ctx, tx, d); err != nil {
		return nil, err
	}
	if err := replaceAdapters(ctx, tx, d); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("flowedit: commit: %w", err)
	}

	return d, nil
}

// DeleteDAG removes every version of a document and its adapters.
// No error if the dagID doesn't exist.
func (s *PGStore) DeleteDAG(ctx context.Context, dagID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("flowedit: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM flow_adapters WHERE graph_id = $1`, dagID); err != nil {
		return fmt.Errorf("flowedit: delete adapters: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flow_dags WHERE id = $1`, dagID); err != nil {
		return fmt.Errorf("flowedit: delete versions: %w", err)
	}

	return tx.Commit(ctx)
}

// ListVersions returns a document's version history, newest first.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListVersions(ctx context.Context, dagID string) ([]flowedit.DAGVersion, error) {
	rows, err := s.db.Query(ctx, `
SELECT version, subversion, status, created_at, updated_at
FROM flow_dags
WHERE id = $1
ORDER BY version DESC, subversion DESC`, dagID)
	if err != nil {
		return nil, fmt.Errorf("flowedit: list versions: %w", err)
	}
	defer rows.Close()

	versions := []flowedit.DAGVersion{}
	for rows.Next() {
		var v flowedit.DAGVersion
		if err := rows.Scan(&v.Version, &v.Subversion, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("flowedit: scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowedit: rows versions: %w", err)
	}

	return versions, nil
}

// PublishDAG freezes the latest draft as a new published major version:
// version is bumped, subversion resets to 1. Returns
// flowedit.ErrDAGNotFound for unknown ids.
func (s *PGStore) PublishDAG(ctx context.Context, dagID string) (*flowedit.DAG, error) {
	d, err := scanDAG(s.db.QueryRow(ctx, latestDAGQuery, dagID))
	if err != nil {
		if isNoRows(err) {
			return nil, flowedit.ErrDAGNotFound
		}
		return nil, err
	}

	d.Version++
	d.Subversion = 1
	d.Status = flowedit.StatusPublished

	if err := insertVersion(ctx, s.db, d); err != nil {
		return nil, err
	}

	adapters, err := s.listAdapters(ctx, dagID)
	if err != nil {
		return nil, err
	}
	d.Adapters = adapters

	return d, nil
}

// execer covers both pgxpool.Pool and pgx.Tx for single-statement writes.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// insertVersion writes one flow_dags row for the document's current
// version/subversion/status.
func insertVersion(ctx context.Context, tx execer, d *flowedit.DAG) error {
	steps, err := json.Marshal(d.Steps)
	if err != nil {
		return fmt.Errorf("flowedit: encode steps: %w", err)
	}
	inputSchema, err := json.Marshal(d.InputSchema)
	if err != nil {
		return fmt.Errorf("flowedit: encode input schema: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO flow_dags (id, version, subversion, status, name, description, steps, input_schema)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.Version, d.Subversion, d.Status, d.Name, d.Description, steps, inputSchema,
	); err != nil {
		return fmt.Errorf("flowedit: insert version %s %d.%d: %w", d.ID, d.Version, d.Subversion, err)
	}
	return nil
}

// scanDAG reads one flow_dags row into a document (adapters not included).
func scanDAG(row pgx.Row) (*flowedit.DAG, error) {
	var d flowedit.DAG
	var steps, inputSchema []byte
	if err := row.Scan(
		&d.ID, &d.Version, &d.Subversion, &d.Status,
		&d.Name, &d.Description, &steps, &inputSchema,
	); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("flowedit: scan dag: %w", err)
	}

	if err := json.Unmarshal(steps, &d.Steps); err != nil {
		return nil, fmt.Errorf("flowedit: decode steps: %w", err)
	}
	if len(inputSchema) > 0 {
		if err := json.Unmarshal(inputSchema, &d.InputSchema); err != nil {
			return nil, fmt.Errorf("flowedit: decode input schema: %w", err)
		}
	}
	return &d, nil
}
