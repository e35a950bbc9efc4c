package pipeline

import (
	"context"
)

// applyTotals recomputes every score's total from its six point components.
// Totals are a pure function of the components and are rewritten
// unconditionally on every run; team-per-event and season-overall sums are
// computed at read time by the leaderboard queries, never persisted.
func (p *Pipeline) applyTotals(ctx context.Context) error {
	return p.db.Scores.ApplyTotals(ctx, p.cfg.Year)
}
