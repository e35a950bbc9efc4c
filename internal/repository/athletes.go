package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// AthleteRepository handles athlete database operations
type AthleteRepository struct {
	db *Database
}

const athleteColumns = `
	id, competitor_id, name, gender, age, age_category, affiliate_id,
	year, team_name, team_leader, created_at, updated_at
`

func scanAthlete(row pgx.Row) (*models.Athlete, error) {
	var a models.Athlete
	err := row.Scan(
		&a.ID, &a.CompetitorID, &a.Name, &a.Gender, &a.Age, &a.AgeCategory,
		&a.AffiliateID, &a.Year, &a.TeamName, &a.TeamLeader,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new athlete
func (r *AthleteRepository) Create(ctx context.Context, athlete *models.Athlete) error {
	query := `
		INSERT INTO athletes (
			competitor_id, name, gender, age, age_category, affiliate_id,
			year, team_name, team_leader
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		athlete.CompetitorID, athlete.Name, athlete.Gender, athlete.Age,
		athlete.AgeCategory, athlete.AffiliateID, athlete.Year,
		athlete.TeamName, athlete.TeamLeader,
	).Scan(&athlete.ID, &athlete.CreatedAt, &athlete.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create athlete: %w", err)
	}

	log.Debug().
		Int("id", athlete.ID).
		Int("competitor_id", athlete.CompetitorID).
		Str("name", athlete.Name).
		Msg("Athlete created")

	return nil
}

// Find retrieves an athlete by competitor id and season year, returning
// nil (no error) when the athlete does not exist yet
func (r *AthleteRepository) Find(ctx context.Context, competitorID, year int) (*models.Athlete, error) {
	query := `
		SELECT ` + athleteColumns + `
		FROM athletes
		WHERE competitor_id = $1 AND year = $2
	`

	athlete, err := scanAthlete(r.db.Pool.QueryRow(ctx, query, competitorID, year))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find athlete: %w", err)
	}

	return athlete, nil
}

// GetByID retrieves an athlete by its database ID
func (r *AthleteRepository) GetByID(ctx context.Context, id int) (*models.Athlete, error) {
	query := `
		SELECT ` + athleteColumns + `
		FROM athletes
		WHERE id = $1
	`

	athlete, err := scanAthlete(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("athlete not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}

	return athlete, nil
}

// Update updates an athlete's raw attributes
func (r *AthleteRepository) Update(ctx context.Context, athlete *models.Athlete) error {
	query := `
		UPDATE athletes SET
			name = $1,
			gender = $2,
			age = $3,
			age_category = $4,
			affiliate_id = $5,
			updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		athlete.Name, athlete.Gender, athlete.Age, athlete.AgeCategory,
		athlete.AffiliateID, athlete.ID,
	).Scan(&athlete.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("athlete not found: id=%d", athlete.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update athlete: %w", err)
	}

	return nil
}

// List retrieves all athletes for a season, ordered for roster display
// (by team, leaders first, then name)
func (r *AthleteRepository) List(ctx context.Context, year int) ([]*models.Athlete, error) {
	query := `
		SELECT ` + athleteColumns + `
		FROM athletes
		WHERE year = $1
		ORDER BY team_name, team_leader DESC, name
	`

	rows, err := r.db.Pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}
	defer rows.Close()

	var athletes []*models.Athlete
	for rows.Next() {
		athlete, err := scanAthlete(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan athlete: %w", err)
		}
		athletes = append(athletes, athlete)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating athletes: %w", err)
	}

	return athletes, nil
}

// AssignTeamByName assigns every athlete with a matching display name to the
// given team and role, returning the number of rows updated. Name matching
// is the roster overlay's only join key; a miss updates zero rows.
func (r *AthleteRepository) AssignTeamByName(ctx context.Context, name, teamName string, role int) (int64, error) {
	query := `
		UPDATE athletes SET
			team_name = $2,
			team_leader = $3,
			updated_at = NOW()
		WHERE name = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, name, teamName, role)
	if err != nil {
		return 0, fmt.Errorf("failed to assign team: %w", err)
	}

	return result.RowsAffected(), nil
}

// AssignTeam assigns a single athlete to a team by competitor id
func (r *AthleteRepository) AssignTeam(ctx context.Context, competitorID, year int, teamName string) error {
	query := `
		UPDATE athletes SET
			team_name = $3,
			updated_at = NOW()
		WHERE competitor_id = $1 AND year = $2
	`

	result, err := r.db.Pool.Exec(ctx, query, competitorID, year, teamName)
	if err != nil {
		return fmt.Errorf("failed to assign team: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("athlete not found: competitor_id=%d year=%d", competitorID, year)
	}

	return nil
}

// AssignRole sets a single athlete's team role by competitor id
func (r *AthleteRepository) AssignRole(ctx context.Context, competitorID, year, role int) error {
	query := `
		UPDATE athletes SET
			team_leader = $3,
			updated_at = NOW()
		WHERE competitor_id = $1 AND year = $2
	`

	result, err := r.db.Pool.Exec(ctx, query, competitorID, year, role)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("athlete not found: competitor_id=%d year=%d", competitorID, year)
	}

	return nil
}

// TeamNames retrieves the distinct team names for a season
func (r *AthleteRepository) TeamNames(ctx context.Context, year int) ([]string, error) {
	query := `
		SELECT DISTINCT team_name
		FROM athletes
		WHERE year = $1
		ORDER BY team_name
	`

	rows, err := r.db.Pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list team names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan team name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team names: %w", err)
	}

	return names, nil
}

// RenameTeam moves every athlete on a team to a new team name
func (r *AthleteRepository) RenameTeam(ctx context.Context, current, next string) (int64, error) {
	query := `
		UPDATE athletes SET
			team_name = $2,
			updated_at = NOW()
		WHERE team_name = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, current, next)
	if err != nil {
		return 0, fmt.Errorf("failed to rename team: %w", err)
	}

	return result.RowsAffected(), nil
}

// UnassignedNames lists athletes still on the Unassigned sentinel team,
// the visible symptom of roster name-match misses
func (r *AthleteRepository) UnassignedNames(ctx context.Context, year int) ([]string, error) {
	query := `
		SELECT name
		FROM athletes
		WHERE year = $1 AND team_name = $2
		ORDER BY name
	`

	rows, err := r.db.Pool.Query(ctx, query, year, models.UnassignedTeam)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned athletes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan athlete name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unassigned athletes: %w", err)
	}

	return names, nil
}

// DeleteByYear deletes every athlete (and, via cascade, their scores) for a
// season. Only the explicit full-season reset calls this.
func (r *AthleteRepository) DeleteByYear(ctx context.Context, year int) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM athletes WHERE year = $1`, year)
	if err != nil {
		return 0, fmt.Errorf("failed to delete athletes: %w", err)
	}

	log.Info().
		Int("year", year).
		Int64("count", result.RowsAffected()).
		Msg("Athletes deleted for season")

	return result.RowsAffected(), nil
}

// Count returns the number of athletes for a season
func (r *AthleteRepository) Count(ctx context.Context, year int) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM athletes WHERE year = $1`, year).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count athletes: %w", err)
	}

	return count, nil
}
