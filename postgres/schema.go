package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flow_dags (
    id           TEXT NOT NULL,
    version      INT  NOT NULL,
    subversion   INT  NOT NULL,
    status       TEXT NOT NULL DEFAULT 'draft',
    name         TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    steps        JSONB NOT NULL DEFAULT '{}',
    input_schema JSONB NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (id, version, subversion)
);

CREATE TABLE IF NOT EXISTS flow_adapters (
    id         TEXT PRIMARY KEY,
    graph_id   TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    type       TEXT NOT NULL,
    input      JSONB NOT NULL DEFAULT '{}',
    meta       JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_flow_dags_id      ON flow_dags(id);
CREATE INDEX IF NOT EXISTS idx_flow_adapters_graph ON flow_adapters(graph_id);
`

// CreateSchema creates the flow_dags and flow_adapters tables if they
// don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the flow_adapters and flow_dags tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS flow_adapters, flow_dags CASCADE;`)
	return err
}
