package repository

import (
	"testing"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardRepository_TeamEventScores(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	a1 := createTestAthlete(t, db, ctx, 3001, "Jane Smith", "F", "Team Red", models.TeamRoleLeader)
	a2 := createTestAthlete(t, db, ctx, 3002, "Bob Jones", "M", "Team Red", models.TeamRoleMember)
	a3 := createTestAthlete(t, db, ctx, 3003, "Cara Diaz", "F", "Team Blue", models.TeamRoleMember)

	s1 := createTestScore(t, db, ctx, a1.ID, 1, "24.1", 100)
	createTestScore(t, db, ctx, a2.ID, 1, "24.1", 200)
	createTestScore(t, db, ctx, a3.ID, 1, "24.1", 300)

	s1.Top3Score = 3
	s1.SideChallengeScore = 10
	require.NoError(t, db.Scores.Update(ctx, s1), "Should store components")
	require.NoError(t, db.Scores.ApplyTotals(ctx, testYear), "Should compute totals")

	teamScores, err := db.Leaderboard.TeamEventScores(ctx, testYear, 1)
	require.NoError(t, err, "Should compute team event scores")
	require.Len(t, teamScores, 2, "Should aggregate one row per team")

	// Ordered by team name: Blue, Red
	assert.Equal(t, "Team Blue", teamScores[0].TeamName, "Teams should be ordered by name")
	assert.Equal(t, 1, teamScores[0].Athletes, "Team Blue has one athlete")
	assert.Equal(t, 1, teamScores[0].TotalScore, "Team Blue's total is participation only")

	red := teamScores[1]
	assert.Equal(t, "Team Red", red.TeamName, "Second team should be Red")
	assert.Equal(t, 2, red.Athletes, "Team Red has two athletes")
	assert.Equal(t, 2, red.ParticipationScore, "Participation should sum across the team")
	assert.Equal(t, 3, red.Top3Score, "Top-3 bonus should sum across the team")
	assert.Equal(t, 10, red.SideChallengeScore, "Side bonus should sum across the team")
	assert.Equal(t, 15, red.TotalScore, "Team total should sum every component")
}

func TestLeaderboardRepository_TeamOverallScores(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	a1 := createTestAthlete(t, db, ctx, 3004, "Dan Park", "M", "Team Red", models.TeamRoleMember)
	a2 := createTestAthlete(t, db, ctx, 3005, "Eve Long", "F", "Team Blue", models.TeamRoleMember)

	createTestScore(t, db, ctx, a1.ID, 1, "24.1", 100)
	createTestScore(t, db, ctx, a1.ID, 2, "24.2", 100)
	createTestScore(t, db, ctx, a2.ID, 1, "24.1", 100)
	require.NoError(t, db.Scores.ApplyTotals(ctx, testYear), "Should compute totals")

	overall, err := db.Leaderboard.TeamOverallScores(ctx, testYear)
	require.NoError(t, err, "Should compute overall scores")
	require.Len(t, overall, 2, "Should aggregate one row per team")

	assert.Equal(t, "Team Blue", overall[0].TeamName, "Teams should be ordered by name")
	assert.Equal(t, 1, overall[0].OverallScore, "One event, participation only")
	assert.Equal(t, "Team Red", overall[1].TeamName, "Second team should be Red")
	assert.Equal(t, 2, overall[1].OverallScore, "Season total should span every event")
}

func TestLeaderboardRepository_EventLeaderboardTopOnly(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	a1 := createTestAthlete(t, db, ctx, 3006, "Fred Kim", "M", "Team Red", models.TeamRoleMember)
	a2 := createTestAthlete(t, db, ctx, 3007, "Gia Torres", "F", "Team Blue", models.TeamRoleMember)
	s1 := createTestScore(t, db, ctx, a1.ID, 1, "24.1", 100)
	s2 := createTestScore(t, db, ctx, a2.ID, 1, "24.1", 200)

	require.NoError(t, db.Scores.UpdateRanks(ctx, []RankUpdate{
		{ScoreID: s1.ID, Rank: 2},
		{ScoreID: s2.ID, Rank: 5},
	}), "Should write ranks")

	all, err := db.Leaderboard.EventLeaderboard(ctx, testYear, 1, false)
	require.NoError(t, err, "Should list every entry")
	assert.Len(t, all, 2, "Unfiltered leaderboard should include every athlete")

	top, err := db.Leaderboard.EventLeaderboard(ctx, testYear, 1, true)
	require.NoError(t, err, "Should list podium entries")
	require.Len(t, top, 1, "Top-only view should include ranks 1-3 only")
	assert.Equal(t, "Fred Kim", top[0].Name, "The podium athlete should survive the filter")
	assert.Equal(t, 2, top[0].AffiliateRank, "Rank should be exposed")
}

func TestLeaderboardRepository_EventLeaderboardOrder(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Two women in different tiers plus a man: groups order F before M,
	// Open before Masters within a gender (age_category DESC), rx before
	// scaled, and better raw results first inside a tier
	open1 := createTestAthlete(t, db, ctx, 3008, "Amy Wu", "F", "Team Red", models.TeamRoleMember)
	open2 := createTestAthlete(t, db, ctx, 3009, "Bea Cole", "F", "Team Blue", models.TeamRoleMember)
	masters := createTestAthlete(t, db, ctx, 3010, "Cid Voss", "M", "Team Red", models.TeamRoleMember)

	createTestScore(t, db, ctx, open1.ID, 1, "24.1", 300)
	createTestScore(t, db, ctx, open2.ID, 1, "24.1", 100)
	createTestScore(t, db, ctx, masters.ID, 1, "24.1", 50)

	entries, err := db.Leaderboard.EventLeaderboard(ctx, testYear, 1, false)
	require.NoError(t, err, "Should list entries")
	require.Len(t, entries, 3, "Should list every athlete")

	assert.Equal(t, "Amy Wu", entries[0].Name, "Best female result should lead")
	assert.Equal(t, "Bea Cole", entries[1].Name, "Worse female result should follow")
	assert.Equal(t, "Cid Voss", entries[2].Name, "Men should follow women in display order")
}
