package scheduler

import (
	"context"
	"fmt"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/config"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/leaderboard"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/pipeline"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs the nightly leaderboard refresh. The Open is a weekly
// competition, not a live one: scores trickle in over a few days after
// each event closes, so a nightly full refresh is all the freshness the
// leaderboard needs.
type Scheduler struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	views    *leaderboard.Service
	cron     *cron.Cron
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, p *pipeline.Pipeline, views *leaderboard.Service) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		pipeline: p,
		views:    views,
		cron:     cron.New(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.NightlyRefreshCron, func() {
		log.Info().Msg("Running nightly refresh...")
		if err := s.runRefresh(ctx); err != nil {
			log.Error().Err(err).Msg("Nightly refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule nightly refresh: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.NightlyRefreshCron).
		Msg("Nightly refresh scheduled")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	log.Info().Msg("Scheduler stopped")
}

// runRefresh runs the full pipeline and invalidates cached views on success
func (s *Scheduler) runRefresh(ctx context.Context) error {
	result, err := s.pipeline.Refresh(ctx)
	if err != nil {
		return err
	}

	s.views.Invalidate(ctx)

	log.Info().
		Int("entrants", result.EntrantCount).
		Int("athletes_created", result.AthletesCreated).
		Int("scores_created", result.ScoresCreated).
		Int("scores_merged", result.ScoresMerged).
		Msg("Scheduled refresh complete")

	return nil
}
