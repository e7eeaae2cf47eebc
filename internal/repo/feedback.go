package repo

import (
	"context"
	"database/sql"

	"github.com/jamesaphoenix/tx/internal/storeerr"
)

// GetFeedbackScore returns the recorded feedback score for a learning, or
// (0, false, nil) if no feedback has been recorded yet — the retrieval
// pipeline's feedback tracker falls back to the neutral default in that case.
func GetFeedbackScore(ctx context.Context, q Queryer, learningID string) (float64, bool, error) {
	var score float64
	err := q.QueryRowContext(ctx, `SELECT score FROM learning_feedback WHERE learning_id = ?`, learningID).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storeerr.Database("get feedback score", err)
	}
	return score, true, nil
}

// RecordFeedback upserts a thumbs up/down vote, maintaining a running
// average: new_score = (old_score*votes + vote) / (votes+1).
func RecordFeedback(ctx context.Context, q Queryer, learningID string, vote float64, at interface{}) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO learning_feedback (learning_id, score, votes, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(learning_id) DO UPDATE SET
			score = (learning_feedback.score * learning_feedback.votes + excluded.score) / (learning_feedback.votes + 1),
			votes = learning_feedback.votes + 1,
			updated_at = excluded.updated_at`,
		learningID, vote, at,
	)
	if err != nil {
		return storeerr.Database("record feedback", err)
	}
	return nil
}
