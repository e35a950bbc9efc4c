package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// UnassignedTeam is the team name given to athletes with no roster entry
const UnassignedTeam = "Unassigned"

// Team roles. Leaders sort ahead of members when picking a team's
// representative row for side/spirit bonuses.
const (
	TeamRoleMember = 0
	TeamRoleLeader = 1
)

var validate = validator.New()

// Athlete represents one competitor in one Open season
type Athlete struct {
	ID           int       `db:"id"`
	CompetitorID int       `db:"competitor_id"`
	Name         string    `db:"name"`
	Gender       string    `db:"gender"`
	Age          int       `db:"age"`
	AgeCategory  string    `db:"age_category"`
	AffiliateID  int       `db:"affiliate_id"`
	Year         int       `db:"year"`
	TeamName     string    `db:"team_name"`
	TeamLeader   int       `db:"team_leader"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// EntrantInput is the entrant payload from the leaderboard API.
// The API serializes numeric fields as strings.
type EntrantInput struct {
	CompetitorID   string `json:"competitorId" validate:"required,numeric"`
	CompetitorName string `json:"competitorName" validate:"required"`
	Gender         string `json:"gender" validate:"required"`
	Age            string `json:"age" validate:"required,numeric"`
	AffiliateID    string `json:"affiliateId" validate:"omitempty,numeric"`
	DivisionID     string `json:"divisionId"`
}

// ToAthlete validates the entrant payload and converts it to an Athlete
// tagged with the given season year. Age category tiers are derived from
// the configured cutoffs.
func (ei *EntrantInput) ToAthlete(year, openCutoff, mastersCutoff int) (*Athlete, error) {
	if err := validate.Struct(ei); err != nil {
		return nil, fmt.Errorf("invalid entrant payload: %w", err)
	}

	competitorID, err := strconv.Atoi(ei.CompetitorID)
	if err != nil {
		return nil, fmt.Errorf("invalid competitor id %q: %w", ei.CompetitorID, err)
	}

	age, err := strconv.Atoi(ei.Age)
	if err != nil {
		return nil, fmt.Errorf("invalid age %q: %w", ei.Age, err)
	}

	affiliateID := 0
	if ei.AffiliateID != "" {
		affiliateID, err = strconv.Atoi(ei.AffiliateID)
		if err != nil {
			return nil, fmt.Errorf("invalid affiliate id %q: %w", ei.AffiliateID, err)
		}
	}

	return &Athlete{
		CompetitorID: competitorID,
		Name:         ei.CompetitorName,
		Gender:       ei.Gender,
		Age:          age,
		AgeCategory:  AgeCategory(age, openCutoff, mastersCutoff),
		AffiliateID:  affiliateID,
		Year:         year,
		TeamName:     UnassignedTeam,
		TeamLeader:   TeamRoleMember,
	}, nil
}

// AgeCategory derives the affiliate age category tier from an athlete's age
func AgeCategory(age, openCutoff, mastersCutoff int) string {
	switch {
	case age >= mastersCutoff:
		return "Grand Masters"
	case age >= openCutoff:
		return "Masters"
	default:
		return "Open"
	}
}

// ParseTeamRole maps a roster role code to a team role,
// defaulting to ordinary member for unrecognized codes
func ParseTeamRole(code string) int {
	if code == "TL" {
		return TeamRoleLeader
	}
	return TeamRoleMember
}
