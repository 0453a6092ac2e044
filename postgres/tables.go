package postgres

import (
	"context"
	"fmt"
)

// ListTables returns the user tables of the public schema, excluding the
// store's own flow_ tables. The editor uses these to populate form selects
// for database steps.
func (s *PGStore) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = 'public'
  AND table_type = 'BASE TABLE'
  AND table_name NOT LIKE 'flow\_%'
ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("flowedit: list tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("flowedit: scan table: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowedit: rows tables: %w", err)
	}

	return tables, nil
}

// GetTable returns a table's column→type map. An unknown table yields an
// empty map, mirroring information_schema semantics.
func (s *PGStore) GetTable(ctx context.Context, name string) (map[string]string, error) {
	rows, err := s.db.Query(ctx, `
SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'public' AND table_name = $1
ORDER BY ordinal_position`, name)
	if err != nil {
		return nil, fmt.Errorf("flowedit: get table: %w", err)
	}
	defer rows.Close()

	columns := map[string]string{}
	for rows.Next() {
		var column, dataType string
		if err := rows.Scan(&column, &dataType); err != nil {
			return nil, fmt.Errorf("flowedit: scan column: %w", err)
		}
		columns[column] = dataType
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowedit: rows columns: %w", err)
	}

	return columns, nil
}
