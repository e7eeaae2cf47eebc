// Package feedback implements the per-learning thumbs up/down tracker that
// feeds the retrieval pipeline's feedbackBoost term (SPEC_FULL.md
// SUPPLEMENTED FEATURES). Same Live/Noop/Auto shape as the other optional
// retrieval backends (spec.md §9).
package feedback

import (
	"context"
	"time"

	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/store"
)

// NeutralScore is the default returned for a learning with no recorded
// feedback, matching internal/retrieval.NeutralFeedbackScore.
const NeutralScore = 0.5

// Live reads/writes feedback against the store. It is always "available":
// feedback is a local table with no external dependency.
type Live struct {
	store *store.Store
	now   func() time.Time
}

func NewLive(s *store.Store) *Live {
	return &Live{store: s, now: time.Now}
}

func (l *Live) IsAvailable(ctx context.Context) bool { return l != nil && l.store != nil }

// Score returns the recorded feedback score for a learning, or the neutral
// default if none has been recorded.
func (l *Live) Score(ctx context.Context, learningID string) (float64, error) {
	score, ok, err := repo.GetFeedbackScore(ctx, l.store.DB(), learningID)
	if err != nil {
		return NeutralScore, err
	}
	if !ok {
		return NeutralScore, nil
	}
	return score, nil
}

// Record stores one thumbs up (vote=1) or thumbs down (vote=0) for a
// learning, folded into its running average.
func (l *Live) Record(ctx context.Context, learningID string, vote float64) error {
	return repo.RecordFeedback(ctx, l.store.DB(), learningID, vote, l.now())
}

// Noop always returns the neutral default and never persists anything.
type Noop struct{}

func (Noop) IsAvailable(context.Context) bool { return false }
func (Noop) Score(context.Context, string) (float64, error) {
	return NeutralScore, nil
}

// Auto probes Live's availability (trivially true whenever a store is
// wired) and falls back to Noop otherwise.
type Auto struct {
	Live *Live
	Noop Noop
}

func NewAuto(live *Live) *Auto { return &Auto{Live: live} }

func (a *Auto) IsAvailable(ctx context.Context) bool { return true }

func (a *Auto) Score(ctx context.Context, learningID string) (float64, error) {
	if a.Live != nil && a.Live.IsAvailable(ctx) {
		return a.Live.Score(ctx, learningID)
	}
	return a.Noop.Score(ctx, learningID)
}
