package pipeline

import (
	"context"
	"fmt"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/models"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/overlay"

	"github.com/rs/zerolog/log"
)

// reconcile merges the fetched entrant/score lists into persisted Athlete
// and Score rows. Athletes are found-or-created by (competitor id, year);
// scores are merge-upserted by (athlete, ordinal) so that non-empty
// incoming fields overwrite stored ones while empty incoming fields leave
// previously applied overlay points untouched. An invalid payload aborts
// the whole pass: no partial row is persisted from bad data.
//
// Divisions are fetched independently and can overlap in membership, so
// entrants are deduplicated here by competitor id; the first occurrence
// wins and later ones are skipped.
func (p *Pipeline) reconcile(
	ctx context.Context,
	entrants []models.EntrantInput,
	scoreLists [][]models.ScoreInput,
	result *RefreshResult,
) error {
	if len(entrants) != len(scoreLists) {
		return fmt.Errorf("entrant/score list length mismatch: %d vs %d", len(entrants), len(scoreLists))
	}

	seen := make(map[int]bool, len(entrants))

	for i, entrant := range entrants {
		incoming, err := entrant.ToAthlete(p.cfg.Year, p.cfg.OpenAgeCutoff, p.cfg.MastersAgeCutoff)
		if err != nil {
			return err
		}
		incoming.Name = overlay.NormalizeName(incoming.Name)

		if seen[incoming.CompetitorID] {
			log.Debug().
				Int("competitor_id", incoming.CompetitorID).
				Msg("Duplicate entrant across divisions, skipping")
			continue
		}
		seen[incoming.CompetitorID] = true

		athlete, err := p.db.Athletes.Find(ctx, incoming.CompetitorID, p.cfg.Year)
		if err != nil {
			return err
		}

		if athlete == nil {
			if err := p.db.Athletes.Create(ctx, incoming); err != nil {
				return err
			}
			athlete = incoming
			result.AthletesCreated++
		} else {
			// Keep team assignment and role, refresh everything the
			// API is authoritative for.
			athlete.Name = incoming.Name
			athlete.Gender = incoming.Gender
			athlete.Age = incoming.Age
			athlete.AgeCategory = incoming.AgeCategory
			athlete.AffiliateID = incoming.AffiliateID
			if err := p.db.Athletes.Update(ctx, athlete); err != nil {
				return err
			}
		}

		for _, scoreInput := range scoreLists[i] {
			if err := p.reconcileScore(ctx, athlete, &scoreInput, result); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *Pipeline) reconcileScore(
	ctx context.Context,
	athlete *models.Athlete,
	scoreInput *models.ScoreInput,
	result *RefreshResult,
) error {
	incoming, err := scoreInput.ToScore(p.cfg.EventName(scoreInput.Ordinal))
	if err != nil {
		return fmt.Errorf("athlete %d event %d: %w", athlete.CompetitorID, scoreInput.Ordinal, err)
	}
	incoming.AthleteID = athlete.ID
	incoming.JudgeName = overlay.NormalizeName(incoming.JudgeName)

	if incoming.Score > 0 {
		incoming.ParticipationScore = p.cfg.ParticipationScore
	}

	existing, err := p.db.Scores.Find(ctx, athlete.ID, incoming.Ordinal)
	if err != nil {
		return err
	}

	if existing == nil {
		if err := p.db.Scores.Create(ctx, incoming); err != nil {
			return err
		}
		result.ScoresCreated++
		return nil
	}

	existing.Merge(incoming)
	if err := p.db.Scores.Update(ctx, existing); err != nil {
		return err
	}
	result.ScoresMerged++
	return nil
}
