// Package pipeline implements the scoring pipeline: fetched leaderboard
// data is reconciled into Athlete and Score rows, enriched by the four
// overlay passes, ranked within peer groups, and summed into totals. The
// stages run strictly in sequence and each commits before the next begins,
// so a failure mid-run leaves the previous stage's output intact and the
// whole run can simply be repeated.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/client"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/config"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/metrics"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/repository"

	"github.com/rs/zerolog/log"
)

// Pipeline runs the scoring pipeline against the database
type Pipeline struct {
	cfg    *config.Config
	client *client.Client
	db     *repository.Database
}

// New creates a pipeline
func New(cfg *config.Config, apiClient *client.Client, db *repository.Database) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		client: apiClient,
		db:     db,
	}
}

// RefreshResult summarizes one pipeline run
type RefreshResult struct {
	Year            int `json:"year"`
	AffiliateID     int `json:"affiliate_id"`
	EntrantCount    int `json:"entrant_count"`
	ScoreCount      int `json:"score_count"`
	AthletesCreated int `json:"athletes_created"`
	ScoresCreated   int `json:"scores_created"`
	ScoresMerged    int `json:"scores_merged"`
}

// Refresh runs the full pipeline: fetch, reconcile, the four overlay
// passes, ranking with the top-3 bonus, and total recomputation. Safe to
// invoke repeatedly; every stage is an idempotent upsert or a full
// deterministic recompute.
func (p *Pipeline) Refresh(ctx context.Context) (*RefreshResult, error) {
	start := time.Now()

	log.Info().
		Int("year", p.cfg.Year).
		Int("affiliate_id", p.cfg.AffiliateID).
		Msg("Starting leaderboard refresh")

	entrants, scores, err := p.client.FetchLeaderboard(ctx, p.cfg.AffiliateID, p.cfg.Year)
	if err != nil {
		metrics.RecordSync("failure", time.Since(start).Seconds())
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	result := &RefreshResult{
		Year:         p.cfg.Year,
		AffiliateID:  p.cfg.AffiliateID,
		EntrantCount: len(entrants),
		ScoreCount:   len(scores),
	}

	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{"reconcile", func(ctx context.Context) error {
			return p.reconcile(ctx, entrants, scores, result)
		}},
		{"team_assignments", p.applyTeamAssignments},
		{"ranking", p.applyRanks},
		{"attendance", p.applyAttendance},
		{"judging", p.applyJudgeScores},
		{"side_challenge", p.applySideChallenges},
		{"spirit", p.applySpiritScores},
		{"totals", p.applyTotals},
	}

	for _, stage := range stages {
		stageStart := time.Now()
		if err := stage.run(ctx); err != nil {
			metrics.RecordStage(stage.name, "failure", time.Since(stageStart).Seconds())
			metrics.RecordSync("failure", time.Since(start).Seconds())
			return nil, fmt.Errorf("%s stage failed: %w", stage.name, err)
		}
		metrics.RecordStage(stage.name, "success", time.Since(stageStart).Seconds())
		log.Debug().
			Str("stage", stage.name).
			Dur("duration", time.Since(stageStart)).
			Msg("Pipeline stage complete")
	}

	metrics.AthletesReconciled.Set(float64(result.EntrantCount))
	metrics.ScoresReconciled.Set(float64(result.ScoreCount))
	metrics.RecordSync("success", time.Since(start).Seconds())

	log.Info().
		Int("entrants", result.EntrantCount).
		Int("athletes_created", result.AthletesCreated).
		Int("scores_created", result.ScoresCreated).
		Int("scores_merged", result.ScoresMerged).
		Dur("duration", time.Since(start)).
		Msg("Leaderboard refresh complete")

	return result, nil
}

// Reset deletes every score for the configured season, and every athlete
// too when includeAthletes is set. This is an explicit operator action; a
// normal refresh never deletes anything.
func (p *Pipeline) Reset(ctx context.Context, includeAthletes bool) error {
	if _, err := p.db.Scores.DeleteByYear(ctx, p.cfg.Year); err != nil {
		return fmt.Errorf("failed to reset scores: %w", err)
	}

	if includeAthletes {
		if _, err := p.db.Athletes.DeleteByYear(ctx, p.cfg.Year); err != nil {
			return fmt.Errorf("failed to reset athletes: %w", err)
		}
	}

	log.Info().
		Int("year", p.cfg.Year).
		Bool("athletes", includeAthletes).
		Msg("Season reset complete")

	return nil
}
