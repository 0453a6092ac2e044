package flowedit

import (
	"context"
	"errors"
)

var (
	ErrCycleDetected   = errors.New("flowedit: cycle detected, graph is not acyclic")
	ErrSelfLoop        = errors.New("flowedit: edge source and target are the same step")
	ErrDuplicateEdge   = errors.New("flowedit: edge already exists")
	ErrDAGNotSet       = errors.New("flowedit: dag is not set")
	ErrDAGNotFound     = errors.New("flowedit: dag not found")
	ErrNodeNotFound    = errors.New("flowedit: node not found")
	ErrEdgeNotFound    = errors.New("flowedit: edge not found")
	ErrAdapterNotFound = errors.New("flowedit: adapter not found")
)

// Store defines the contract for persisting and retrieving DAG documents.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Documents
	CreateDAG(ctx context.Context, d *DAG) (*DAG, error)
	GetDAG(ctx context.Context, dagID string) (*DAG, error)
	ListDAGs(ctx context.Context) ([]DAG, error)
	UpdateDAG(ctx context.Context, d *DAG) (*DAG, error)
	DeleteDAG(ctx context.Context, dagID string) error

	// Versioning
	ListVersions(ctx context.Context, dagID string) ([]DAGVersion, error)
	PublishDAG(ctx context.Context, dagID string) (*DAG, error)

	// Adapters
	UpdateAdapter(ctx context.Context, adapter *Adapter) error

	// Table introspection for the editor's form selects.
	ListTables(ctx context.Context) ([]string, error)
	GetTable(ctx context.Context, name string) (map[string]string, error)
}
