package models

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_Merge_PreservesOverlayPoints(t *testing.T) {
	stored := &Score{
		Ordinal:            1,
		EventName:          "24.1",
		Score:              180,
		ScoreDisplay:       "180 reps",
		ParticipationScore: 1,
		AttendanceScore:    2,
		JudgeScore:         2,
		SideChallengeScore: 10,
		SpiritScore:        10,
	}

	incoming := &Score{
		Ordinal:            1,
		EventName:          "24.1",
		Score:              185,
		ScoreDisplay:       "185 reps",
		ParticipationScore: 1,
	}

	stored.Merge(incoming)

	assert.Equal(t, int64(185), stored.Score, "Raw score should be overwritten")
	assert.Equal(t, "185 reps", stored.ScoreDisplay, "Display should be overwritten")
	assert.Equal(t, 2, stored.AttendanceScore, "Attendance points should survive a re-sync")
	assert.Equal(t, 2, stored.JudgeScore, "Judge points should survive a re-sync")
	assert.Equal(t, 10, stored.SideChallengeScore, "Side challenge points should survive a re-sync")
	assert.Equal(t, 10, stored.SpiritScore, "Spirit points should survive a re-sync")
}

func TestScore_Merge_EmptyFieldsKeepStored(t *testing.T) {
	stored := &Score{
		Score:        540000,
		ScoreDisplay: "9:00",
		TimeMs:       sql.NullInt64{Int64: 540000, Valid: true},
		JudgeName:    "Pat Lee",
		Scaled:       1,
	}

	stored.Merge(&Score{})

	assert.Equal(t, int64(540000), stored.Score, "Zero incoming score should keep stored value")
	assert.Equal(t, "9:00", stored.ScoreDisplay, "Empty incoming display should keep stored value")
	assert.Equal(t, "Pat Lee", stored.JudgeName, "Empty incoming judge should keep stored value")
	assert.Equal(t, 1, stored.Scaled, "Zero incoming scaled flag should keep stored value")
	assert.True(t, stored.TimeMs.Valid, "Null incoming time should keep stored value")
}

func TestScore_Merge_DoesNotTouchComputedFields(t *testing.T) {
	stored := &Score{
		AffiliateRank: 2,
		Top3Score:     3,
		TotalScore:    8,
	}

	stored.Merge(&Score{Score: 100, AffiliateRank: 1, TotalScore: 99})

	assert.Equal(t, 2, stored.AffiliateRank, "Rank is recomputed, never merged")
	assert.Equal(t, 8, stored.TotalScore, "Total is recomputed, never merged")
	assert.Equal(t, 3, stored.Top3Score, "Top-3 bonus is recomputed, never merged")
}

func TestScore_Total(t *testing.T) {
	score := &Score{
		ParticipationScore: 1,
		Top3Score:          3,
		AttendanceScore:    2,
		JudgeScore:         2,
		SideChallengeScore: 10,
		SpiritScore:        10,
	}

	assert.Equal(t, 28, score.Total(), "Total should sum all six components")
	assert.Equal(t, 0, (&Score{}).Total(), "Empty score should total zero")
}

func TestScoreInput_ToScore(t *testing.T) {
	input := &ScoreInput{
		Ordinal:      2,
		Score:        "540000",
		ScoreDisplay: "9:00",
		Scaled:       "0",
		Judge:        "pat lee",
		TimeMs:       "540000",
		TiebreakMs:   "120000",
	}

	score, err := input.ToScore("24.2")
	require.NoError(t, err, "Should convert a valid score payload")

	assert.Equal(t, 2, score.Ordinal, "Ordinal should carry over")
	assert.Equal(t, "24.2", score.EventName, "Event name comes from configuration")
	assert.Equal(t, int64(540000), score.Score, "Score should be parsed")
	assert.Equal(t, 0, score.Scaled, "Scaled flag should be parsed")
	assert.True(t, score.TimeMs.Valid, "Time should be set")
	assert.Equal(t, int64(540000), score.TimeMs.Int64, "Time should be parsed")
	assert.True(t, score.TiebreakMs.Valid, "Tiebreak should be set")
	assert.Equal(t, "pat lee", score.JudgeName, "Judge name carries over raw")
}

func TestScoreInput_ToScore_EmptyResult(t *testing.T) {
	input := &ScoreInput{Ordinal: 3}

	score, err := input.ToScore("24.3")
	require.NoError(t, err, "An athlete with no logged result is still a valid payload")

	assert.Equal(t, int64(0), score.Score, "Missing score should be zero")
	assert.False(t, score.Reps.Valid, "Missing reps should be null")
	assert.False(t, score.TimeMs.Valid, "Missing time should be null")
}

func TestScoreInput_ToScore_Invalid(t *testing.T) {
	_, err := (&ScoreInput{Ordinal: 0}).ToScore("24.1")
	assert.Error(t, err, "Ordinal below 1 should be rejected")

	_, err = (&ScoreInput{Ordinal: 1, Score: "not-a-number"}).ToScore("24.1")
	assert.Error(t, err, "Non-numeric score should be rejected")
}
