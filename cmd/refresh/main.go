// Command refresh runs one full leaderboard refresh from the command line:
// fetch, reconcile, overlays, ranking, totals. Use --reset to wipe the
// season's scores first, or --reset-athletes to wipe athletes too (team
// assignments are re-read from the roster CSV on the next run).
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/client"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/config"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/pipeline"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/repository"

	"github.com/rs/zerolog/log"
)

func main() {
	reset := flag.Bool("reset", false, "delete the season's scores before refreshing")
	resetAthletes := flag.Bool("reset-athletes", false, "delete the season's scores and athletes before refreshing")
	flag.Parse()

	ctx := context.Background()
	cfg := config.MustLoad()

	dbConfig := repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     fmt.Sprintf("%d", cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}

	if err := repository.Migrate(dbConfig); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	db, err := repository.NewDatabase(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("Validating service health...")
	if err := db.Health(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	cfClient := client.NewClient(
		cfg.CFLeaderboardURL,
		cfg.CFAPITimeout,
		cfg.CFAPIThrottle,
		cfg.CFAPIPageSize,
	)

	pipe := pipeline.New(cfg, cfClient, db)

	if *reset || *resetAthletes {
		log.Info().
			Bool("athletes", *resetAthletes).
			Msg("Resetting season data...")
		if err := pipe.Reset(ctx, *resetAthletes); err != nil {
			log.Fatal().Err(err).Msg("Reset failed")
		}
	}

	result, err := pipe.Refresh(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Refresh failed")
	}

	log.Info().
		Int("year", result.Year).
		Int("entrants", result.EntrantCount).
		Int("athletes_created", result.AthletesCreated).
		Int("scores_created", result.ScoresCreated).
		Int("scores_merged", result.ScoresMerged).
		Msg("Refresh complete")

	// Print the season standings as a quick sanity check
	overall, err := db.Leaderboard.TeamOverallScores(ctx, cfg.Year)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load team standings")
	}

	fmt.Printf("\n%s %d standings:\n", cfg.AffiliateName, cfg.Year)
	for i, team := range overall {
		fmt.Printf("  %2d. %-30s %5d\n", i+1, team.TeamName, team.OverallScore)
	}
}
