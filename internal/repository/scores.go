package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ScoreRepository handles score database operations
type ScoreRepository struct {
	db *Database
}

const scoreColumns = `
	id, athlete_id, ordinal, event_name, score, score_display,
	reps, time_ms, tiebreak_ms, scaled, judge_name,
	participation_score, top3_score, attendance_score, judge_score,
	side_challenge_score, spirit_score, affiliate_rank, total_score,
	created_at, updated_at
`

func scanScore(row pgx.Row) (*models.Score, error) {
	var s models.Score
	err := row.Scan(
		&s.ID, &s.AthleteID, &s.Ordinal, &s.EventName, &s.Score, &s.ScoreDisplay,
		&s.Reps, &s.TimeMs, &s.TiebreakMs, &s.Scaled, &s.JudgeName,
		&s.ParticipationScore, &s.Top3Score, &s.AttendanceScore, &s.JudgeScore,
		&s.SideChallengeScore, &s.SpiritScore, &s.AffiliateRank, &s.TotalScore,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new score
func (r *ScoreRepository) Create(ctx context.Context, score *models.Score) error {
	query := `
		INSERT INTO scores (
			athlete_id, ordinal, event_name, score, score_display,
			reps, time_ms, tiebreak_ms, scaled, judge_name,
			participation_score, top3_score, attendance_score, judge_score,
			side_challenge_score, spirit_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		score.AthleteID, score.Ordinal, score.EventName, score.Score, score.ScoreDisplay,
		score.Reps, score.TimeMs, score.TiebreakMs, score.Scaled, score.JudgeName,
		score.ParticipationScore, score.Top3Score, score.AttendanceScore, score.JudgeScore,
		score.SideChallengeScore, score.SpiritScore,
	).Scan(&score.ID, &score.CreatedAt, &score.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create score: %w", err)
	}

	return nil
}

// Find retrieves a score by athlete and event ordinal, returning nil
// (no error) when the athlete has no score for the event yet
func (r *ScoreRepository) Find(ctx context.Context, athleteID, ordinal int) (*models.Score, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM scores
		WHERE athlete_id = $1 AND ordinal = $2
	`

	score, err := scanScore(r.db.Pool.QueryRow(ctx, query, athleteID, ordinal))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find score: %w", err)
	}

	return score, nil
}

// Update writes a score's raw result and point component fields
func (r *ScoreRepository) Update(ctx context.Context, score *models.Score) error {
	query := `
		UPDATE scores SET
			event_name = $1,
			score = $2,
			score_display = $3,
			reps = $4,
			time_ms = $5,
			tiebreak_ms = $6,
			scaled = $7,
			judge_name = $8,
			participation_score = $9,
			top3_score = $10,
			attendance_score = $11,
			judge_score = $12,
			side_challenge_score = $13,
			spirit_score = $14,
			updated_at = NOW()
		WHERE id = $15
		RETURNING updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		score.EventName, score.Score, score.ScoreDisplay,
		score.Reps, score.TimeMs, score.TiebreakMs, score.Scaled, score.JudgeName,
		score.ParticipationScore, score.Top3Score, score.AttendanceScore,
		score.JudgeScore, score.SideChallengeScore, score.SpiritScore,
		score.ID,
	).Scan(&score.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("score not found: id=%d", score.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}

	return nil
}

// ListByAthlete retrieves all scores for an athlete ordered by event
func (r *ScoreRepository) ListByAthlete(ctx context.Context, athleteID int) ([]*models.Score, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM scores
		WHERE athlete_id = $1
		ORDER BY ordinal
	`

	rows, err := r.db.Pool.Query(ctx, query, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []*models.Score
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}

	return scores, nil
}

// RankRow carries the peer-group keys and order keys the ranking pass needs
type RankRow struct {
	ScoreID     int
	Ordinal     int
	Gender      string
	AgeCategory string
	Scaled      int
	Score       int64
	Reps        int32
}

// RankRows loads every score for a season joined with the athlete
// attributes that define its ranking peer group
func (r *ScoreRepository) RankRows(ctx context.Context, year int) ([]RankRow, error) {
	query := `
		SELECT s.id, s.ordinal, a.gender, a.age_category, s.scaled, s.score,
		       COALESCE(s.reps, 0)
		FROM scores s
		JOIN athletes a ON s.athlete_id = a.id
		WHERE a.year = $1
	`

	rows, err := r.db.Pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load rank rows: %w", err)
	}
	defer rows.Close()

	var rankRows []RankRow
	for rows.Next() {
		var rr RankRow
		err := rows.Scan(&rr.ScoreID, &rr.Ordinal, &rr.Gender, &rr.AgeCategory,
			&rr.Scaled, &rr.Score, &rr.Reps)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rank row: %w", err)
		}
		rankRows = append(rankRows, rr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rank rows: %w", err)
	}

	return rankRows, nil
}

// RankUpdate assigns a computed rank to one score row
type RankUpdate struct {
	ScoreID int
	Rank    int
}

// UpdateRanks writes computed ranks back in one batch inside a transaction
func (r *ScoreRepository) UpdateRanks(ctx context.Context, updates []RankUpdate) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rank update: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE scores SET affiliate_rank = $1, updated_at = NOW() WHERE id = $2`,
			u.Rank, u.ScoreID,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range updates {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to update rank: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close rank batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rank updates: %w", err)
	}

	log.Debug().Int("count", len(updates)).Msg("Affiliate ranks updated")
	return nil
}

// ApplyTop3 awards the top-3 bonus to every score ranked 1-3 in its peer
// group and resets everyone else to zero, so a displaced athlete loses the
// bonus on the next run
func (r *ScoreRepository) ApplyTop3(ctx context.Context, year, points int) error {
	query := `
		UPDATE scores SET
			top3_score = CASE
				WHEN affiliate_rank BETWEEN 1 AND 3 THEN $2
				ELSE 0
			END,
			updated_at = NOW()
		FROM athletes a
		WHERE scores.athlete_id = a.id AND a.year = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, year, points)
	if err != nil {
		return fmt.Errorf("failed to apply top3 scores: %w", err)
	}

	log.Debug().Int64("count", result.RowsAffected()).Msg("Top-3 scores applied")
	return nil
}

// ApplyTotals recomputes every score's total as the sum of its six point
// components. The total is never stored independently of the components.
func (r *ScoreRepository) ApplyTotals(ctx context.Context, year int) error {
	query := `
		UPDATE scores SET
			total_score = participation_score + top3_score + attendance_score
				+ judge_score + side_challenge_score + spirit_score,
			updated_at = NOW()
		FROM athletes a
		WHERE scores.athlete_id = a.id AND a.year = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, year)
	if err != nil {
		return fmt.Errorf("failed to apply total scores: %w", err)
	}

	log.Debug().Int64("count", result.RowsAffected()).Msg("Total scores recomputed")
	return nil
}

// clearComponent zeroes one overlay point column for a season. Overlay
// passes clear before awarding, like ApplyTop3, so credit revoked between
// runs (a leader change, a dropped CSV row, a corrected judge name) does
// not linger on the previously credited row.
func (r *ScoreRepository) clearComponent(ctx context.Context, year int, column string) error {
	query := fmt.Sprintf(`
		UPDATE scores SET
			%s = 0,
			updated_at = NOW()
		FROM athletes a
		WHERE scores.athlete_id = a.id AND a.year = $1 AND scores.%s <> 0
	`, column, column)

	if _, err := r.db.Pool.Exec(ctx, query, year); err != nil {
		return fmt.Errorf("failed to clear %s: %w", column, err)
	}

	return nil
}

// ClearAttendanceScores zeroes every attendance credit for a season
func (r *ScoreRepository) ClearAttendanceScores(ctx context.Context, year int) error {
	return r.clearComponent(ctx, year, "attendance_score")
}

// ClearJudgeScores zeroes every judging credit for a season
func (r *ScoreRepository) ClearJudgeScores(ctx context.Context, year int) error {
	return r.clearComponent(ctx, year, "judge_score")
}

// ClearSideChallengeScores zeroes every side-challenge bonus for a season
func (r *ScoreRepository) ClearSideChallengeScores(ctx context.Context, year int) error {
	return r.clearComponent(ctx, year, "side_challenge_score")
}

// ClearSpiritScores zeroes every spirit bonus for a season
func (r *ScoreRepository) ClearSpiritScores(ctx context.Context, year int) error {
	return r.clearComponent(ctx, year, "spirit_score")
}

// JudgeEvent is a distinct (judge name, event ordinal) pair seen in score data
type JudgeEvent struct {
	JudgeName string
	Ordinal   int
}

// DistinctJudges lists every distinct (judge, ordinal) pair for a season.
// The score table itself is the record of who judged what.
func (r *ScoreRepository) DistinctJudges(ctx context.Context, year int) ([]JudgeEvent, error) {
	query := `
		SELECT DISTINCT s.judge_name, s.ordinal
		FROM scores s
		JOIN athletes a ON s.athlete_id = a.id
		WHERE a.year = $1 AND s.judge_name <> ''
	`

	rows, err := r.db.Pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list judges: %w", err)
	}
	defer rows.Close()

	var judges []JudgeEvent
	for rows.Next() {
		var je JudgeEvent
		if err := rows.Scan(&je.JudgeName, &je.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan judge: %w", err)
		}
		judges = append(judges, je)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating judges: %w", err)
	}

	return judges, nil
}

// SetAttendance awards the attendance points to every score for the event
// whose athlete's name is in the attendee list. Setting (not incrementing)
// keeps the pass idempotent.
func (r *ScoreRepository) SetAttendance(ctx context.Context, year int, eventName string, names []string, points int) (int64, error) {
	query := `
		UPDATE scores SET
			attendance_score = $4,
			updated_at = NOW()
		FROM athletes a
		WHERE scores.athlete_id = a.id
		  AND a.year = $1
		  AND scores.event_name = $2
		  AND a.name = ANY($3)
	`

	result, err := r.db.Pool.Exec(ctx, query, year, eventName, names, points)
	if err != nil {
		return 0, fmt.Errorf("failed to set attendance scores: %w", err)
	}

	return result.RowsAffected(), nil
}

// SetJudgeScore credits a judging athlete's own score for the event they
// judged. Judge names that match no athlete update zero rows.
func (r *ScoreRepository) SetJudgeScore(ctx context.Context, year int, judgeName string, ordinal, points int) (int64, error) {
	query := `
		UPDATE scores SET
			judge_score = $4,
			updated_at = NOW()
		FROM athletes a
		WHERE scores.athlete_id = a.id
		  AND a.year = $1
		  AND a.name = $2
		  AND scores.ordinal = $3
	`

	result, err := r.db.Pool.Exec(ctx, query, year, judgeName, ordinal, points)
	if err != nil {
		return 0, fmt.Errorf("failed to set judge score: %w", err)
	}

	return result.RowsAffected(), nil
}

// SetSideChallengeScore awards a side-challenge bonus to a team's single
// representative row for the event: the team leader's score when one
// exists, else the first member by name
func (r *ScoreRepository) SetSideChallengeScore(ctx context.Context, year int, eventName, teamName string, points int) (int64, error) {
	query := `
		UPDATE scores SET
			side_challenge_score = $4,
			updated_at = NOW()
		WHERE id = (
			SELECT s.id
			FROM scores s
			JOIN athletes a ON s.athlete_id = a.id
			WHERE a.year = $1 AND s.event_name = $2 AND a.team_name = $3
			ORDER BY a.team_leader DESC, a.name
			LIMIT 1
		)
	`

	result, err := r.db.Pool.Exec(ctx, query, year, eventName, teamName, points)
	if err != nil {
		return 0, fmt.Errorf("failed to set side challenge score: %w", err)
	}

	return result.RowsAffected(), nil
}

// SetSpiritScore awards a spirit bonus to a team's single representative
// row for the event, with the same leader-first winner selection
func (r *ScoreRepository) SetSpiritScore(ctx context.Context, year int, eventName, teamName string, points int) (int64, error) {
	query := `
		UPDATE scores SET
			spirit_score = $4,
			updated_at = NOW()
		WHERE id = (
			SELECT s.id
			FROM scores s
			JOIN athletes a ON s.athlete_id = a.id
			WHERE a.year = $1 AND s.event_name = $2 AND a.team_name = $3
			ORDER BY a.team_leader DESC, a.name
			LIMIT 1
		)
	`

	result, err := r.db.Pool.Exec(ctx, query, year, eventName, teamName, points)
	if err != nil {
		return 0, fmt.Errorf("failed to set spirit score: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteByYear deletes every score for a season. Only the explicit
// full-season reset calls this; a normal refresh merges in place.
func (r *ScoreRepository) DeleteByYear(ctx context.Context, year int) (int64, error) {
	query := `
		DELETE FROM scores
		WHERE athlete_id IN (SELECT id FROM athletes WHERE year = $1)
	`

	result, err := r.db.Pool.Exec(ctx, query, year)
	if err != nil {
		return 0, fmt.Errorf("failed to delete scores: %w", err)
	}

	log.Info().
		Int("year", year).
		Int64("count", result.RowsAffected()).
		Msg("Scores deleted for season")

	return result.RowsAffected(), nil
}

// Count returns the number of scores for a season
func (r *ScoreRepository) Count(ctx context.Context, year int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM scores s
		JOIN athletes a ON s.athlete_id = a.id
		WHERE a.year = $1
	`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, year).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count scores: %w", err)
	}

	return count, nil
}
