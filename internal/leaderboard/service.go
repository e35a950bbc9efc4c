// Package leaderboard is the read side of the system: grouped and ordered
// views over the final Athlete/Score state, with a Redis read-through
// cache in front of the heavier queries. A cache failure degrades to a
// direct database read, never to an error.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/cache"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/config"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/metrics"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/repository"

	"github.com/rs/zerolog/log"
)

// Service serves leaderboard views
type Service struct {
	cfg   *config.Config
	db    *repository.Database
	cache *cache.RedisCache // nil when the cache is unavailable
}

// NewService creates a leaderboard service. The cache may be nil.
func NewService(cfg *config.Config, db *repository.Database, redisCache *cache.RedisCache) *Service {
	return &Service{
		cfg:   cfg,
		db:    db,
		cache: redisCache,
	}
}

func (s *Service) ttl() time.Duration {
	return time.Duration(s.cfg.CacheTTLLeaderboard) * time.Second
}

func (s *Service) cached(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}

	found, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to database")
		return false
	}
	if found {
		metrics.RecordCacheHit()
		return true
	}

	metrics.RecordCacheMiss()
	return false
}

func (s *Service) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl()); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// TeamEventScores returns each team's point component sums for one event
func (s *Service) TeamEventScores(ctx context.Context, ordinal int) ([]repository.TeamEventScore, error) {
	key := fmt.Sprintf("cfopen:%d:team_scores:%d", s.cfg.Year, ordinal)

	var teamScores []repository.TeamEventScore
	if s.cached(ctx, key, &teamScores) {
		return teamScores, nil
	}

	teamScores, err := s.db.Leaderboard.TeamEventScores(ctx, s.cfg.Year, ordinal)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, teamScores)
	return teamScores, nil
}

// TeamOverallScores returns each team's season total across every event
func (s *Service) TeamOverallScores(ctx context.Context) ([]repository.TeamOverallScore, error) {
	key := fmt.Sprintf("cfopen:%d:overall_scores", s.cfg.Year)

	var overall []repository.TeamOverallScore
	if s.cached(ctx, key, &overall) {
		return overall, nil
	}

	overall, err := s.db.Leaderboard.TeamOverallScores(ctx, s.cfg.Year)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, overall)
	return overall, nil
}

// EventLeaderboard returns one event's entries grouped by gender and age
// category (e.g. "F-Masters"), each group in display order. With topOnly
// set, only peer-group podium rows (rank 1-3) are included.
func (s *Service) EventLeaderboard(ctx context.Context, ordinal int, topOnly bool) (map[string][]repository.LeaderboardEntry, error) {
	key := fmt.Sprintf("cfopen:%d:leaderboard:%d:%t", s.cfg.Year, ordinal, topOnly)

	var grouped map[string][]repository.LeaderboardEntry
	if s.cached(ctx, key, &grouped) {
		return grouped, nil
	}

	entries, err := s.db.Leaderboard.EventLeaderboard(ctx, s.cfg.Year, ordinal, topOnly)
	if err != nil {
		return nil, err
	}

	grouped = make(map[string][]repository.LeaderboardEntry)
	for _, entry := range entries {
		category := entry.Gender + "-" + entry.AgeCategory
		grouped[category] = append(grouped[category], entry)
	}

	s.store(ctx, key, grouped)
	return grouped, nil
}

// Invalidate drops every cached view for the configured season. Called
// after a refresh so readers see the new state immediately.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}

	keys := []string{fmt.Sprintf("cfopen:%d:overall_scores", s.cfg.Year)}
	for ordinal := range s.cfg.EventNames {
		keys = append(keys,
			fmt.Sprintf("cfopen:%d:team_scores:%s", s.cfg.Year, ordinal),
			fmt.Sprintf("cfopen:%d:leaderboard:%s:true", s.cfg.Year, ordinal),
			fmt.Sprintf("cfopen:%d:leaderboard:%s:false", s.cfg.Year, ordinal),
		)
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Msg("Cache invalidation failed")
	}
}
