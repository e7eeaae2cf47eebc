package repo

import (
	"context"
	"database/sql"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const docColumns = `id, title, body, created_at, updated_at`

func scanDoc(row interface{ Scan(dest ...interface{}) error }) (*types.Doc, error) {
	var d types.Doc
	if err := row.Scan(&d.ID, &d.Title, &d.Body, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertDoc creates or replaces a markdown document.
func UpsertDoc(ctx context.Context, q Queryer, d *types.Doc) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO docs (id, title, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, body = excluded.body, updated_at = excluded.updated_at`,
		d.ID, d.Title, d.Body, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return storeerr.Database("upsert doc", err)
	}
	return nil
}

// GetDoc fetches a document by ID.
func GetDoc(ctx context.Context, q Queryer, id string) (*types.Doc, error) {
	row := q.QueryRowContext(ctx, `SELECT `+docColumns+` FROM docs WHERE id = ?`, id)
	d, err := scanDoc(row)
	if err == sql.ErrNoRows {
		return nil, storeerr.NotFound("doc", id)
	}
	if err != nil {
		return nil, storeerr.Database("get doc", err)
	}
	return d, nil
}

// ListDocs returns every document, ordered by title.
func ListDocs(ctx context.Context, q Queryer) ([]*types.Doc, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+docColumns+` FROM docs ORDER BY title`)
	if err != nil {
		return nil, storeerr.Database("list docs", err)
	}
	defer rows.Close()
	var out []*types.Doc
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, storeerr.Database("scan doc", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDoc removes a document.
func DeleteDoc(ctx context.Context, q Queryer, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM docs WHERE id = ?`, id)
	if err != nil {
		return storeerr.Database("delete doc", err)
	}
	return nil
}
