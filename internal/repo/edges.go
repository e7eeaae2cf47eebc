package repo

import (
	"context"
	"strconv"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const edgeColumns = `id, from_type, from_id, to_type, to_id, type, weight, metadata, created_at, invalidated_at`

func scanEdge(row interface{ Scan(dest ...interface{}) error }) (*types.Edge, error) {
	var e types.Edge
	var fromType, toType, edgeType string
	if err := row.Scan(&e.ID, &fromType, &e.FromID, &toType, &e.ToID, &edgeType, &e.Weight, &e.Metadata, &e.CreatedAt, &e.InvalidatedAt); err != nil {
		return nil, err
	}
	e.FromType = types.NodeType(fromType)
	e.ToType = types.NodeType(toType)
	e.Type = types.EdgeType(edgeType)
	return &e, nil
}

// InsertEdge records a typed, weighted link between two nodes.
func InsertEdge(ctx context.Context, q Queryer, e *types.Edge) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO edges (from_type, from_id, to_type, to_id, type, weight, metadata, created_at, invalidated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.FromType), e.FromID, string(e.ToType), e.ToID, string(e.Type), e.Weight, e.Metadata, e.CreatedAt, e.InvalidatedAt,
	)
	if err != nil {
		return 0, storeerr.Database("insert edge", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeerr.Database("insert edge id", err)
	}
	return id, nil
}

// InvalidateEdge soft-deletes an edge by stamping invalidated_at, preserving
// it for audit rather than hard-deleting.
func InvalidateEdge(ctx context.Context, q Queryer, id int64, at interface{}) error {
	res, err := q.ExecContext(ctx, `UPDATE edges SET invalidated_at = ? WHERE id = ? AND invalidated_at IS NULL`, at, id)
	if err != nil {
		return storeerr.Database("invalidate edge", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.Database("invalidate edge rows affected", err)
	}
	if n == 0 {
		return storeerr.NotFound("edge", strconv.FormatInt(id, 10))
	}
	return nil
}

// EdgesFrom returns every live (non-invalidated) edge originating at a node,
// optionally filtered to a single edge type. Used by the graph-expansion
// retrieval stage to hop one level out from a seed result.
func EdgesFrom(ctx context.Context, q Queryer, fromType types.NodeType, fromID string, edgeType *types.EdgeType) ([]*types.Edge, error) {
	query := `SELECT ` + edgeColumns + ` FROM edges WHERE from_type = ? AND from_id = ? AND invalidated_at IS NULL`
	args := []interface{}{string(fromType), fromID}
	if edgeType != nil {
		query += ` AND type = ?`
		args = append(args, string(*edgeType))
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Database("edges from", err)
	}
	defer rows.Close()
	var out []*types.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, storeerr.Database("scan edge", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EdgesTo is the inverse of EdgesFrom: every live edge pointing at a node.
func EdgesTo(ctx context.Context, q Queryer, toType types.NodeType, toID string) ([]*types.Edge, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+edgeColumns+` FROM edges WHERE to_type = ? AND to_id = ? AND invalidated_at IS NULL`,
		string(toType), toID)
	if err != nil {
		return nil, storeerr.Database("edges to", err)
	}
	defer rows.Close()
	var out []*types.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, storeerr.Database("scan edge to", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
