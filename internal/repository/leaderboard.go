package repository

import (
	"context"
	"fmt"
)

// LeaderboardRepository handles the read queries over final score state.
// Team and season aggregations are computed at query time; nothing here is
// persisted.
type LeaderboardRepository struct {
	db *Database
}

// TeamEventScore is one team's component sums for one event
type TeamEventScore struct {
	TeamName           string `json:"team_name"`
	Athletes           int    `json:"athletes"`
	ParticipationScore int    `json:"participation_score"`
	Top3Score          int    `json:"top3_score"`
	AttendanceScore    int    `json:"attendance_score"`
	JudgeScore         int    `json:"judge_score"`
	SideChallengeScore int    `json:"side_challenge_score"`
	SpiritScore        int    `json:"spirit_score"`
	TotalScore         int    `json:"total_score"`
}

// TeamEventScores sums every point component per team for one event
func (r *LeaderboardRepository) TeamEventScores(ctx context.Context, year, ordinal int) ([]TeamEventScore, error) {
	query := `
		SELECT a.team_name,
		       COUNT(*),
		       COALESCE(SUM(s.participation_score), 0),
		       COALESCE(SUM(s.top3_score), 0),
		       COALESCE(SUM(s.attendance_score), 0),
		       COALESCE(SUM(s.judge_score), 0),
		       COALESCE(SUM(s.side_challenge_score), 0),
		       COALESCE(SUM(s.spirit_score), 0),
		       COALESCE(SUM(s.total_score), 0)
		FROM scores s
		JOIN athletes a ON s.athlete_id = a.id
		WHERE a.year = $1 AND s.ordinal = $2
		GROUP BY a.team_name
		ORDER BY a.team_name
	`

	rows, err := r.db.Pool.Query(ctx, query, year, ordinal)
	if err != nil {
		return nil, fmt.Errorf("failed to query team event scores: %w", err)
	}
	defer rows.Close()

	var teamScores []TeamEventScore
	for rows.Next() {
		var ts TeamEventScore
		err := rows.Scan(
			&ts.TeamName, &ts.Athletes,
			&ts.ParticipationScore, &ts.Top3Score, &ts.AttendanceScore,
			&ts.JudgeScore, &ts.SideChallengeScore, &ts.SpiritScore,
			&ts.TotalScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team event score: %w", err)
		}
		teamScores = append(teamScores, ts)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team event scores: %w", err)
	}

	return teamScores, nil
}

// TeamOverallScore is one team's season total across every event
type TeamOverallScore struct {
	TeamName     string `json:"team_name"`
	OverallScore int    `json:"overall_score"`
}

// TeamOverallScores sums each team's total score across the whole season
func (r *LeaderboardRepository) TeamOverallScores(ctx context.Context, year int) ([]TeamOverallScore, error) {
	query := `
		SELECT a.team_name,
		       COALESCE(SUM(s.total_score), 0)
		FROM scores s
		JOIN athletes a ON s.athlete_id = a.id
		WHERE a.year = $1
		GROUP BY a.team_name
		ORDER BY a.team_name
	`

	rows, err := r.db.Pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall team scores: %w", err)
	}
	defer rows.Close()

	var overall []TeamOverallScore
	for rows.Next() {
		var ts TeamOverallScore
		if err := rows.Scan(&ts.TeamName, &ts.OverallScore); err != nil {
			return nil, fmt.Errorf("failed to scan overall team score: %w", err)
		}
		overall = append(overall, ts)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overall team scores: %w", err)
	}

	return overall, nil
}

// LeaderboardEntry is one athlete's result row for event display
type LeaderboardEntry struct {
	Name               string `json:"name"`
	Gender             string `json:"gender"`
	AgeCategory        string `json:"age_category"`
	TeamName           string `json:"team_name"`
	Scaled             int    `json:"scaled"`
	AffiliateRank      int    `json:"affiliate_rank"`
	ScoreDisplay       string `json:"score_display"`
	ParticipationScore int    `json:"participation_score"`
	Top3Score          int    `json:"top3_score"`
	AttendanceScore    int    `json:"attendance_score"`
	JudgeScore         int    `json:"judge_score"`
	SideChallengeScore int    `json:"side_challenge_score"`
	SpiritScore        int    `json:"spirit_score"`
	TotalScore         int    `json:"total_score"`
}

// EventLeaderboard lists athlete results for one event in display order
// (gender, then age category, then scaling tier, then result). When topOnly
// is set, only rows ranked 1-3 in their peer group are returned.
func (r *LeaderboardRepository) EventLeaderboard(ctx context.Context, year, ordinal int, topOnly bool) ([]LeaderboardEntry, error) {
	query := `
		SELECT a.name, a.gender, a.age_category, a.team_name,
		       s.scaled, s.affiliate_rank, s.score_display,
		       s.participation_score, s.top3_score, s.attendance_score,
		       s.judge_score, s.side_challenge_score, s.spirit_score,
		       s.total_score
		FROM scores s
		JOIN athletes a ON s.athlete_id = a.id
		WHERE a.year = $1 AND s.ordinal = $2
		  AND ($3 = false OR s.affiliate_rank BETWEEN 1 AND 3)
		ORDER BY a.gender,
		         a.age_category DESC,
		         s.scaled,
		         s.score DESC,
		         COALESCE(s.reps, 0) DESC,
		         a.name
	`

	rows, err := r.db.Pool.Query(ctx, query, year, ordinal, topOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query event leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		err := rows.Scan(
			&e.Name, &e.Gender, &e.AgeCategory, &e.TeamName,
			&e.Scaled, &e.AffiliateRank, &e.ScoreDisplay,
			&e.ParticipationScore, &e.Top3Score, &e.AttendanceScore,
			&e.JudgeScore, &e.SideChallengeScore, &e.SpiritScore,
			&e.TotalScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard entries: %w", err)
	}

	return entries, nil
}
