// Package overlay reads the manually curated CSV side-inputs (team roster,
// attendance, side-challenge and spirit bonuses) that enrich the scores
// fetched from the leaderboard API. Athlete and team names in these files
// are joined against database rows by title-cased display name; a missing
// file is an error, a name that matches nothing is not.
package overlay

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// NormalizeName case-normalizes a display name for overlay joins
func NormalizeName(name string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(name)))
}

func readRows(path string, minFields int) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open overlay file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for i, record := range records {
		if len(record) < minFields {
			return nil, fmt.Errorf("%s row %d: expected at least %d fields, got %d",
				path, i+1, minFields, len(record))
		}
	}

	return records, nil
}

// TeamAssignment is one roster row: which team an athlete belongs to and
// whether they lead it
type TeamAssignment struct {
	AthleteName string
	TeamName    string
	Role        int
}

// ReadTeamAssignments reads (athlete name, team name, role code) roster rows
func ReadTeamAssignments(path string) ([]TeamAssignment, error) {
	records, err := readRows(path, 3)
	if err != nil {
		return nil, err
	}

	assignments := make([]TeamAssignment, 0, len(records))
	for _, record := range records {
		assignments = append(assignments, TeamAssignment{
			AthleteName: NormalizeName(record[0]),
			TeamName:    strings.TrimSpace(record[1]),
			Role:        models.ParseTeamRole(strings.TrimSpace(record[2])),
		})
	}

	return assignments, nil
}

// ReadAttendance reads (event name, athlete name) rows grouped by event
func ReadAttendance(path string) (map[string][]string, error) {
	records, err := readRows(path, 2)
	if err != nil {
		return nil, err
	}

	attendance := make(map[string][]string)
	for _, record := range records {
		eventName := strings.TrimSpace(record[0])
		attendance[eventName] = append(attendance[eventName], NormalizeName(record[1]))
	}

	return attendance, nil
}

// SideScore is one team-level bonus row: a fixed number of points for one
// team's representative score in one event
type SideScore struct {
	EventName string
	TeamName  string
	Points    int
}

// ReadSideScores reads (event name, team name, points) bonus rows. A row
// with an empty points field gets defaultPoints.
func ReadSideScores(path string, defaultPoints int) ([]SideScore, error) {
	records, err := readRows(path, 2)
	if err != nil {
		return nil, err
	}

	sideScores := make([]SideScore, 0, len(records))
	for i, record := range records {
		points := defaultPoints
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			points, err = strconv.Atoi(strings.TrimSpace(record[2]))
			if err != nil {
				return nil, fmt.Errorf("%s row %d: invalid points %q: %w", path, i+1, record[2], err)
			}
		}

		sideScores = append(sideScores, SideScore{
			EventName: strings.TrimSpace(record[0]),
			TeamName:  strings.TrimSpace(record[1]),
			Points:    points,
		})
	}

	return sideScores, nil
}
