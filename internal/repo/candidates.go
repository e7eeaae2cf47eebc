package repo

import (
	"context"
	"database/sql"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const candidateColumns = `id, content, confidence, source_run, source_task, source_file, status, created_at`

func scanCandidate(row interface{ Scan(dest ...interface{}) error }) (*types.Candidate, error) {
	var c types.Candidate
	var confidence, status string
	if err := row.Scan(&c.ID, &c.Content, &confidence, &c.SourceRun, &c.SourceTask, &c.SourceFile, &status, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Confidence = types.Confidence(confidence)
	c.Status = types.CandidateStatus(status)
	return &c, nil
}

// InsertCandidate records a proposed learning awaiting promotion.
func InsertCandidate(ctx context.Context, q Queryer, c *types.Candidate) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO candidates (id, content, confidence, source_run, source_task, source_file, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Content, string(c.Confidence), c.SourceRun, c.SourceTask, c.SourceFile, string(c.Status), c.CreatedAt,
	)
	if err != nil {
		return storeerr.Database("insert candidate", err)
	}
	return nil
}

// GetCandidate fetches a candidate by ID.
func GetCandidate(ctx context.Context, q Queryer, id string) (*types.Candidate, error) {
	row := q.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, storeerr.NotFound("candidate", id)
	}
	if err != nil {
		return nil, storeerr.Database("get candidate", err)
	}
	return c, nil
}

// UpdateCandidateStatus promotes or rejects a candidate.
func UpdateCandidateStatus(ctx context.Context, q Queryer, id string, status types.CandidateStatus) error {
	res, err := q.ExecContext(ctx, `UPDATE candidates SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return storeerr.Database("update candidate status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.Database("update candidate status rows affected", err)
	}
	if n == 0 {
		return storeerr.NotFound("candidate", id)
	}
	return nil
}

// ListCandidatesByStatus returns every candidate in a given status, oldest
// first (the order they should be triaged in).
func ListCandidatesByStatus(ctx context.Context, q Queryer, status types.CandidateStatus) ([]*types.Candidate, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE status = ? ORDER BY created_at ASC`, string(status))
	if err != nil {
		return nil, storeerr.Database("list candidates by status", err)
	}
	defer rows.Close()
	var out []*types.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, storeerr.Database("scan candidate", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
