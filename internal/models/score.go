package models

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Score represents one athlete's result for one event, together with the
// point components the pipeline awards on top of the raw result.
// TotalScore is always the sum of the six components and AffiliateRank is
// only meaningful after the ranking pass has run for the event.
type Score struct {
	ID        int    `db:"id"`
	AthleteID int    `db:"athlete_id"`
	Ordinal   int    `db:"ordinal"`
	EventName string `db:"event_name"`

	// Raw result as reported by the leaderboard API
	Score        int64         `db:"score"` // normalized numeric score
	ScoreDisplay string        `db:"score_display"`
	Reps         sql.NullInt32 `db:"reps"`
	TimeMs       sql.NullInt64 `db:"time_ms"`
	TiebreakMs   sql.NullInt64 `db:"tiebreak_ms"`
	Scaled       int           `db:"scaled"` // scaling tier flag
	JudgeName    string        `db:"judge_name"`

	// Point components awarded by the pipeline
	ParticipationScore int `db:"participation_score"`
	Top3Score          int `db:"top3_score"`
	AttendanceScore    int `db:"attendance_score"`
	JudgeScore         int `db:"judge_score"`
	SideChallengeScore int `db:"side_challenge_score"`
	SpiritScore        int `db:"spirit_score"`

	// Computed on every pipeline run
	AffiliateRank int `db:"affiliate_rank"`
	TotalScore    int `db:"total_score"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Merge applies incoming raw-result fields onto s. A field overwrites only
// when the incoming value is non-empty/non-zero; empty incoming values keep
// whatever is stored, so overlay points already applied survive a re-sync.
// Computed fields (rank, total) are not merged, they are recomputed.
func (s *Score) Merge(in *Score) {
	if in.EventName != "" {
		s.EventName = in.EventName
	}
	if in.Score != 0 {
		s.Score = in.Score
	}
	if in.ScoreDisplay != "" {
		s.ScoreDisplay = in.ScoreDisplay
	}
	if in.Reps.Valid {
		s.Reps = in.Reps
	}
	if in.TimeMs.Valid {
		s.TimeMs = in.TimeMs
	}
	if in.TiebreakMs.Valid {
		s.TiebreakMs = in.TiebreakMs
	}
	if in.Scaled != 0 {
		s.Scaled = in.Scaled
	}
	if in.JudgeName != "" {
		s.JudgeName = in.JudgeName
	}
	if in.ParticipationScore != 0 {
		s.ParticipationScore = in.ParticipationScore
	}
}

// Total sums the six point components
func (s *Score) Total() int {
	return s.ParticipationScore + s.Top3Score + s.AttendanceScore +
		s.JudgeScore + s.SideChallengeScore + s.SpiritScore
}

// ScoreInput is the per-event score payload from the leaderboard API.
// Numeric fields arrive as strings and may be empty when an athlete has
// not logged a result for the event.
type ScoreInput struct {
	Ordinal      int    `json:"ordinal" validate:"required,min=1"`
	Score        string `json:"score" validate:"omitempty,numeric"`
	ScoreDisplay string `json:"scoreDisplay"`
	Scaled       string `json:"scaled" validate:"omitempty,numeric"`
	Judge        string `json:"judge"`
	Reps         string `json:"reps" validate:"omitempty,numeric"`
	TimeMs       string `json:"time" validate:"omitempty,numeric"`
	TiebreakMs   string `json:"tiebreakMs" validate:"omitempty,numeric"`
}

// ToScore validates the score payload and converts it to a Score row.
// The event display name comes from configuration, keyed by ordinal.
func (si *ScoreInput) ToScore(eventName string) (*Score, error) {
	if err := validate.Struct(si); err != nil {
		return nil, fmt.Errorf("invalid score payload: %w", err)
	}

	score := &Score{
		Ordinal:      si.Ordinal,
		EventName:    eventName,
		ScoreDisplay: si.ScoreDisplay,
		JudgeName:    si.Judge,
	}

	var err error
	if si.Score != "" {
		score.Score, err = strconv.ParseInt(si.Score, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid score %q: %w", si.Score, err)
		}
	}
	if si.Scaled != "" {
		score.Scaled, err = strconv.Atoi(si.Scaled)
		if err != nil {
			return nil, fmt.Errorf("invalid scaled flag %q: %w", si.Scaled, err)
		}
	}
	if si.Reps != "" {
		reps, err := strconv.ParseInt(si.Reps, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid reps %q: %w", si.Reps, err)
		}
		score.Reps = sql.NullInt32{Int32: int32(reps), Valid: true}
	}
	if si.TimeMs != "" {
		timeMs, err := strconv.ParseInt(si.TimeMs, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid time %q: %w", si.TimeMs, err)
		}
		score.TimeMs = sql.NullInt64{Int64: timeMs, Valid: true}
	}
	if si.TiebreakMs != "" {
		tiebreakMs, err := strconv.ParseInt(si.TiebreakMs, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid tiebreak %q: %w", si.TiebreakMs, err)
		}
		score.TiebreakMs = sql.NullInt64{Int64: tiebreakMs, Valid: true}
	}

	return score, nil
}
