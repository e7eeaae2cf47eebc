package repo

import (
	"context"
	"database/sql"
	"math"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const learningColumns = `id, content, created_at, embedding, outcome_score, usage_count, category`

func scanLearning(row interface{ Scan(dest ...interface{}) error }) (*types.Learning, error) {
	var l types.Learning
	var embeddingBlob []byte
	if err := row.Scan(&l.ID, &l.Content, &l.CreatedAt, &embeddingBlob, &l.OutcomeScore, &l.UsageCount, &l.Category); err != nil {
		return nil, err
	}
	l.Embedding = decodeEmbedding(embeddingBlob)
	return &l, nil
}

// decodeEmbedding unpacks a little-endian float32 BLOB; nil input yields a
// nil vector, distinguishing "never embedded" from "embedded as zero-vector".
func decodeEmbedding(blob []byte) []float32 {
	if len(blob) == 0 {
		return nil
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		bits := uint32(blob[i*4]) | uint32(blob[i*4+1])<<8 | uint32(blob[i*4+2])<<16 | uint32(blob[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}

func encodeEmbedding(v []float32) []byte {
	if v == nil {
		return nil
	}
	out := make([]byte, len(v)*4)
	for i, f := range v {
		bits := math.Float32bits(f)
		out[i*4] = byte(bits)
		out[i*4+1] = byte(bits >> 8)
		out[i*4+2] = byte(bits >> 16)
		out[i*4+3] = byte(bits >> 24)
	}
	return out
}

// InsertLearning stores a new learning row. The FTS5 shadow table is kept
// in sync by the learnings_fts_insert trigger.
func InsertLearning(ctx context.Context, q Queryer, l *types.Learning) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO learnings (id, content, created_at, embedding, outcome_score, usage_count, category)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Content, l.CreatedAt, encodeEmbedding(l.Embedding), l.OutcomeScore, l.UsageCount, l.Category,
	)
	if err != nil {
		return storeerr.Database("insert learning", err)
	}
	return nil
}

// GetLearning fetches a learning by ID.
func GetLearning(ctx context.Context, q Queryer, id string) (*types.Learning, error) {
	row := q.QueryRowContext(ctx, `SELECT `+learningColumns+` FROM learnings WHERE id = ?`, id)
	l, err := scanLearning(row)
	if err == sql.ErrNoRows {
		return nil, storeerr.NotFound("learning", id)
	}
	if err != nil {
		return nil, storeerr.Database("get learning", err)
	}
	return l, nil
}

// GetLearnings returns every learning whose ID is in ids, in no particular
// order. Missing IDs are silently omitted.
func GetLearnings(ctx context.Context, q Queryer, ids []string) ([]*types.Learning, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, `SELECT `+learningColumns+` FROM learnings WHERE id IN (`+string(placeholders)+`)`, args...)
	if err != nil {
		return nil, storeerr.Database("get learnings", err)
	}
	defer rows.Close()
	var out []*types.Learning
	for rows.Next() {
		l, err := scanLearning(rows)
		if err != nil {
			return nil, storeerr.Database("scan learning", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SetLearningEmbedding stores a computed embedding vector for a learning.
func SetLearningEmbedding(ctx context.Context, q Queryer, id string, embedding []float32) error {
	res, err := q.ExecContext(ctx, `UPDATE learnings SET embedding = ? WHERE id = ?`, encodeEmbedding(embedding), id)
	if err != nil {
		return storeerr.Database("set learning embedding", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.Database("set learning embedding rows affected", err)
	}
	if n == 0 {
		return storeerr.NotFound("learning", id)
	}
	return nil
}

// BumpLearningUsage increments usage_count, used whenever a learning
// surfaces in an accepted retrieval result.
func BumpLearningUsage(ctx context.Context, q Queryer, id string) error {
	_, err := q.ExecContext(ctx, `UPDATE learnings SET usage_count = usage_count + 1 WHERE id = ?`, id)
	if err != nil {
		return storeerr.Database("bump learning usage", err)
	}
	return nil
}

// SetLearningOutcome records the downstream outcome score used by the
// boost-scoring stage of retrieval.
func SetLearningOutcome(ctx context.Context, q Queryer, id string, score float64) error {
	res, err := q.ExecContext(ctx, `UPDATE learnings SET outcome_score = ? WHERE id = ?`, score, id)
	if err != nil {
		return storeerr.Database("set learning outcome", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.Database("set learning outcome rows affected", err)
	}
	if n == 0 {
		return storeerr.NotFound("learning", id)
	}
	return nil
}

// BM25Hit is one ranked result from SearchLearningsBM25.
type BM25Hit struct {
	Learning *types.Learning
	Score    float64 // more negative is a better match, per SQLite's bm25()
}

// SearchLearningsBM25 runs an FTS5 MATCH query ranked by bm25(), the
// mandatory lexical stage of the retrieval pipeline (spec.md §4.5).
func SearchLearningsBM25(ctx context.Context, q Queryer, query string, limit int) ([]BM25Hit, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT l.`+learningColumnsPrefixed()+`, bm25(learnings_fts) AS rank
		FROM learnings_fts
		JOIN learnings l ON l.rowid = learnings_fts.rowid
		WHERE learnings_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, storeerr.RetrievalErr("bm25", err)
	}
	defer rows.Close()

	var out []BM25Hit
	for rows.Next() {
		var l types.Learning
		var embeddingBlob []byte
		var score float64
		if err := rows.Scan(&l.ID, &l.Content, &l.CreatedAt, &embeddingBlob, &l.OutcomeScore, &l.UsageCount, &l.Category, &score); err != nil {
			return nil, storeerr.RetrievalErr("bm25 scan", err)
		}
		l.Embedding = decodeEmbedding(embeddingBlob)
		out = append(out, BM25Hit{Learning: &l, Score: score})
	}
	return out, rows.Err()
}

func learningColumnsPrefixed() string {
	return "id, content, created_at, embedding, outcome_score, usage_count, category"
}

// AllLearningsWithEmbeddings returns every learning that has a stored
// embedding, for the vector-similarity stage's brute-force cosine scan.
func AllLearningsWithEmbeddings(ctx context.Context, q Queryer) ([]*types.Learning, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+learningColumns+` FROM learnings WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, storeerr.Database("learnings with embeddings", err)
	}
	defer rows.Close()
	var out []*types.Learning
	for rows.Next() {
		l, err := scanLearning(rows)
		if err != nil {
			return nil, storeerr.Database("scan learning with embedding", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
