package repo

import (
	"context"
	"database/sql"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const invariantColumns = `id, name, description, created_at`

func scanInvariant(row interface{ Scan(dest ...interface{}) error }) (*types.Invariant, error) {
	var inv types.Invariant
	if err := row.Scan(&inv.ID, &inv.Name, &inv.Description, &inv.CreatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

// UpsertInvariant creates or replaces a named repository invariant.
func UpsertInvariant(ctx context.Context, q Queryer, inv *types.Invariant) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO invariants (id, name, description, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
		inv.ID, inv.Name, inv.Description, inv.CreatedAt,
	)
	if err != nil {
		return storeerr.Database("upsert invariant", err)
	}
	return nil
}

// GetInvariant fetches an invariant by ID.
func GetInvariant(ctx context.Context, q Queryer, id string) (*types.Invariant, error) {
	row := q.QueryRowContext(ctx, `SELECT `+invariantColumns+` FROM invariants WHERE id = ?`, id)
	inv, err := scanInvariant(row)
	if err == sql.ErrNoRows {
		return nil, storeerr.NotFound("invariant", id)
	}
	if err != nil {
		return nil, storeerr.Database("get invariant", err)
	}
	return inv, nil
}

// ListInvariants returns every invariant, ordered by name.
func ListInvariants(ctx context.Context, q Queryer) ([]*types.Invariant, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+invariantColumns+` FROM invariants ORDER BY name`)
	if err != nil {
		return nil, storeerr.Database("list invariants", err)
	}
	defer rows.Close()
	var out []*types.Invariant
	for rows.Next() {
		inv, err := scanInvariant(rows)
		if err != nil {
			return nil, storeerr.Database("scan invariant", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
