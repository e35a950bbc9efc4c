package pipeline

import (
	"context"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/overlay"

	"github.com/rs/zerolog/log"
)

// applyTeamAssignments assigns athletes to teams from the roster CSV.
// Display name is the only join key: a roster name matching no athlete
// updates nothing and that athlete stays Unassigned.
func (p *Pipeline) applyTeamAssignments(ctx context.Context) error {
	assignments, err := overlay.ReadTeamAssignments(p.cfg.TeamAssignmentsFile)
	if err != nil {
		return err
	}

	for _, assignment := range assignments {
		updated, err := p.db.Athletes.AssignTeamByName(ctx, assignment.AthleteName, assignment.TeamName, assignment.Role)
		if err != nil {
			return err
		}
		if updated == 0 {
			log.Debug().
				Str("name", assignment.AthleteName).
				Str("team", assignment.TeamName).
				Msg("Roster name matched no athlete")
		}
	}

	unassigned, err := p.db.Athletes.UnassignedNames(ctx, p.cfg.Year)
	if err != nil {
		return err
	}
	if len(unassigned) > 0 {
		log.Info().
			Int("count", len(unassigned)).
			Strs("names", unassigned).
			Msg("Athletes without a team assignment")
	}

	return nil
}

// applyAttendance awards attendance points per event from the attendance
// CSV. The pass clears the season's attendance credits first and then sets
// the component, so re-running it changes nothing and a name removed from
// the CSV loses its credit on the next run.
func (p *Pipeline) applyAttendance(ctx context.Context) error {
	attendance, err := overlay.ReadAttendance(p.cfg.AttendanceFile)
	if err != nil {
		return err
	}

	if err := p.db.Scores.ClearAttendanceScores(ctx, p.cfg.Year); err != nil {
		return err
	}

	for eventName, names := range attendance {
		updated, err := p.db.Scores.SetAttendance(ctx, p.cfg.Year, eventName, names, p.cfg.AttendanceScore)
		if err != nil {
			return err
		}
		log.Debug().
			Str("event", eventName).
			Int("attendees", len(names)).
			Int64("updated", updated).
			Msg("Attendance scores applied")
	}

	return nil
}

// applyJudgeScores credits athletes who judged. The score table itself is
// the record of who judged what: every distinct (judge name, ordinal) pair
// that also names an athlete credits that athlete's own score for the same
// event. Duplicate athlete names are not disambiguated.
func (p *Pipeline) applyJudgeScores(ctx context.Context) error {
	judges, err := p.db.Scores.DistinctJudges(ctx, p.cfg.Year)
	if err != nil {
		return err
	}

	if err := p.db.Scores.ClearJudgeScores(ctx, p.cfg.Year); err != nil {
		return err
	}

	credited := 0
	for _, judge := range judges {
		updated, err := p.db.Scores.SetJudgeScore(
			ctx, p.cfg.Year,
			overlay.NormalizeName(judge.JudgeName), judge.Ordinal,
			p.cfg.JudgeScore,
		)
		if err != nil {
			return err
		}
		credited += int(updated)
	}

	log.Debug().
		Int("judge_events", len(judges)).
		Int("credited", credited).
		Msg("Judging credits applied")

	return nil
}

// applySideChallenges awards each side-challenge bonus to one
// representative score per (event, team), preferring the team leader's
// row. The season's bonuses are cleared first: the representative row can
// change between runs (a leader swap, a roster edit) and the team must
// never carry the bonus twice.
func (p *Pipeline) applySideChallenges(ctx context.Context) error {
	sideScores, err := overlay.ReadSideScores(p.cfg.SideChallengeFile, p.cfg.SideChallengeScore)
	if err != nil {
		return err
	}

	if err := p.db.Scores.ClearSideChallengeScores(ctx, p.cfg.Year); err != nil {
		return err
	}

	for _, ss := range sideScores {
		updated, err := p.db.Scores.SetSideChallengeScore(ctx, p.cfg.Year, ss.EventName, ss.TeamName, ss.Points)
		if err != nil {
			return err
		}
		if updated == 0 {
			log.Debug().
				Str("event", ss.EventName).
				Str("team", ss.TeamName).
				Msg("Side challenge matched no score")
		}
	}

	return nil
}

// applySpiritScores awards each spirit bonus the same way side challenges
// are awarded: clear the season's bonuses, then credit one representative
// row per (event, team), leader first
func (p *Pipeline) applySpiritScores(ctx context.Context) error {
	spiritScores, err := overlay.ReadSideScores(p.cfg.SpiritFile, p.cfg.SpiritScore)
	if err != nil {
		return err
	}

	if err := p.db.Scores.ClearSpiritScores(ctx, p.cfg.Year); err != nil {
		return err
	}

	for _, ss := range spiritScores {
		updated, err := p.db.Scores.SetSpiritScore(ctx, p.cfg.Year, ss.EventName, ss.TeamName, ss.Points)
		if err != nil {
			return err
		}
		if updated == 0 {
			log.Debug().
				Str("event", ss.EventName).
				Str("team", ss.TeamName).
				Msg("Spirit score matched no score")
		}
	}

	return nil
}
