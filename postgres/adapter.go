package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/meikuraledutech/flowedit"
)

// UpdateAdapter updates the name, input, type and meta of an existing
// adapter row. Returns flowedit.ErrAdapterNotFound if the adapter doesn't
// exist.
func (s *PGStore) UpdateAdapter(ctx context.Context, adapter *flowedit.Adapter) error {
	input, meta, err := encodeAdapter(adapter)
	if err != nil {
		return err
	}

	ct, err := s.db.Exec(ctx, `
UPDATE flow_adapters SET name = $1, type = $2, input = $3, meta = $4 WHERE id = $5`,
		adapter.Name, adapter.Type, input, meta, adapter.ID,
	)
	if err != nil {
		return fmt.Errorf("flowedit: update adapter: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return flowedit.ErrAdapterNotFound
	}
	return nil
}

// listAdapters returns a document's adapters ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) listAdapters(ctx context.Context, dagID string) ([]flowedit.Adapter, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, graph_id, name, type, input, meta
FROM flow_adapters
WHERE graph_id = $1
ORDER BY created_at`, dagID)
	if err != nil {
		return nil, fmt.Errorf("flowedit: list adapters: %w", err)
	}
	defer rows.Close()

	adapters := []flowedit.Adapter{}
	for rows.Next() {
		var a flowedit.Adapter
		var input, meta []byte
		if err := rows.Scan(&a.ID, &a.GraphID, &a.Name, &a.Type, &input, &meta); err != nil {
			return nil, fmt.Errorf("flowedit: scan adapter: %w", err)
		}
		if err := decodeAdapter(&a, input, meta); err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowedit: rows adapters: %w", err)
	}

	return adapters, nil
}

// replaceAdapters rewrites the document's adapter rows wholesale.
// Adapters without IDs get auto-generated UUIDs.
func replaceAdapters(ctx context.Context, tx execer, d *flowedit.DAG) error {
	if _, err := tx.Exec(ctx, `DELETE FROM flow_adapters WHERE graph_id = $1`, d.ID); err != nil {
		return fmt.Errorf("flowedit: delete adapters: %w", err)
	}

	for i := range d.Adapters {
		a := &d.Adapters[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.GraphID = d.ID

		input, meta, err := encodeAdapter(a)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO flow_adapters (id, graph_id, name, type, input, meta)
VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ID, a.GraphID, a.Name, a.Type, input, meta,
		); err != nil {
			return fmt.Errorf("flowedit: insert adapter %s: %w", a.ID, err)
		}
	}
	return nil
}

// encodeAdapter marshals an adapter's input map and its active meta
// variant for the JSONB columns.
func encodeAdapter(a *flowedit.Adapter) (input, meta []byte, err error) {
	in := a.Input
	if in == nil {
		in = map[string]string{}
	}
	input, err = json.Marshal(in)
	if err != nil {
		return nil, nil, fmt.Errorf("flowedit: encode adapter input: %w", err)
	}

	var variant any
	switch a.Type {
	case flowedit.AdapterHTTP:
		variant = a.HTTP
	case flowedit.AdapterCron:
		variant = a.Cron
	default:
		return nil, nil, fmt.Errorf("flowedit: unknown adapter type %q", a.Type)
	}
	meta, err = json.Marshal(variant)
	if err != nil {
		return nil, nil, fmt.Errorf("flowedit: encode adapter meta: %w", err)
	}
	return input, meta, nil
}

// decodeAdapter unmarshals the JSONB columns into the variant named by the
// adapter's type.
func decodeAdapter(a *flowedit.Adapter, input, meta []byte) error {
	if len(input) > 0 {
		if err := json.Unmarshal(input, &a.Input); err != nil {
			return fmt.Errorf("flowedit: decode adapter input: %w", err)
		}
	}

	switch a.Type {
	case flowedit.AdapterHTTP:
		a.HTTP = &flowedit.HTTPAdapterMeta{}
		return unmarshalMeta(meta, a.HTTP)
	case flowedit.AdapterCron:
		a.Cron = &flowedit.CronAdapterMeta{}
		return unmarshalMeta(meta, a.Cron)
	default:
		return fmt.Errorf("flowedit: unknown adapter type %q", a.Type)
	}
}

func unmarshalMeta(meta []byte, out any) error {
	if len(meta) == 0 {
		return nil
	}
	if err := json.Unmarshal(meta, out); err != nil {
		return fmt.Errorf("flowedit: decode adapter meta: %w", err)
	}
	return nil
}
