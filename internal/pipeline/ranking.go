package pipeline

import (
	"context"
	"sort"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/repository"

	"github.com/rs/zerolog/log"
)

// peerKey identifies a ranking peer group: athletes only compete for rank
// against others in the same event, gender, age category and scaling tier
type peerKey struct {
	Ordinal     int
	Gender      string
	AgeCategory string
	Scaled      int
}

// ComputeRanks assigns a competition rank to every score within its peer
// group. The leaderboard API's score column is normalized so that higher
// is always better, times included; ordering inside a group is normalized
// score descending, then rep count descending. Equal keys share a rank and
// the next distinct value resumes at its position, i.e. 1, 1, 3.
func ComputeRanks(rows []repository.RankRow) []repository.RankUpdate {
	groups := make(map[peerKey][]repository.RankRow)
	for _, row := range rows {
		key := peerKey{
			Ordinal:     row.Ordinal,
			Gender:      row.Gender,
			AgeCategory: row.AgeCategory,
			Scaled:      row.Scaled,
		}
		groups[key] = append(groups[key], row)
	}

	updates := make([]repository.RankUpdate, 0, len(rows))
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Score != group[j].Score {
				return group[i].Score > group[j].Score
			}
			return group[i].Reps > group[j].Reps
		})

		rank := 1
		for i, row := range group {
			if i > 0 && (row.Score != group[i-1].Score || row.Reps != group[i-1].Reps) {
				rank = i + 1
			}
			updates = append(updates, repository.RankUpdate{ScoreID: row.ScoreID, Rank: rank})
		}
	}

	return updates
}

// applyRanks recomputes every score's rank from scratch and awards the
// top-3 bonus. Ranks are never merged or preserved across runs: peer-group
// membership and competitors' scores change between syncs, so the only
// correct rank is a fresh one.
func (p *Pipeline) applyRanks(ctx context.Context) error {
	rows, err := p.db.Scores.RankRows(ctx, p.cfg.Year)
	if err != nil {
		return err
	}

	updates := ComputeRanks(rows)
	if err := p.db.Scores.UpdateRanks(ctx, updates); err != nil {
		return err
	}

	if err := p.db.Scores.ApplyTop3(ctx, p.cfg.Year, p.cfg.Top3Score); err != nil {
		return err
	}

	log.Debug().
		Int("scores", len(updates)).
		Msg("Ranks and top-3 bonuses applied")

	return nil
}
