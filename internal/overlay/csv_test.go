package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Should write test CSV")
	return path
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Jane Smith", NormalizeName("JANE SMITH"), "Should title-case uppercase names")
	assert.Equal(t, "Jane Smith", NormalizeName("jane smith"), "Should title-case lowercase names")
	assert.Equal(t, "Jane Smith", NormalizeName("  jane smith  "), "Should trim whitespace")
	assert.Equal(t, "Mary-Jo Smith", NormalizeName("MARY-JO SMITH"), "Should capitalize hyphenated name parts")
}

func TestReadTeamAssignments(t *testing.T) {
	path := writeCSV(t, "team_assignments.csv",
		"JANE SMITH,Team Red,TL\n"+
			"bob jones,Team Red,\n"+
			"cara diaz,Team Blue,M\n")

	assignments, err := ReadTeamAssignments(path)
	require.NoError(t, err, "Should read roster rows")
	require.Len(t, assignments, 3, "Should read every row")

	assert.Equal(t, "Jane Smith", assignments[0].AthleteName, "Names should be normalized")
	assert.Equal(t, "Team Red", assignments[0].TeamName, "Team name should carry over")
	assert.Equal(t, models.TeamRoleLeader, assignments[0].Role, "TL should mark the team leader")
	assert.Equal(t, models.TeamRoleMember, assignments[1].Role, "Empty role should be an ordinary member")
	assert.Equal(t, models.TeamRoleMember, assignments[2].Role, "Unknown role code should be an ordinary member")
}

func TestReadTeamAssignments_ShortRow(t *testing.T) {
	path := writeCSV(t, "team_assignments.csv", "jane smith,Team Red\n")

	_, err := ReadTeamAssignments(path)
	assert.Error(t, err, "Roster rows need athlete, team and role fields")
}

func TestReadAttendance(t *testing.T) {
	path := writeCSV(t, "attendance.csv",
		"24.1,jane smith\n"+
			"24.1,BOB JONES\n"+
			"24.2,jane smith\n")

	attendance, err := ReadAttendance(path)
	require.NoError(t, err, "Should read attendance rows")

	require.Len(t, attendance, 2, "Rows should be grouped by event")
	assert.Equal(t, []string{"Jane Smith", "Bob Jones"}, attendance["24.1"], "Names should be normalized and ordered")
	assert.Equal(t, []string{"Jane Smith"}, attendance["24.2"], "Each event keeps its own attendee list")
}

func TestReadSideScores(t *testing.T) {
	path := writeCSV(t, "side_challenge.csv",
		"24.1,Team Red\n"+
			"24.1,Team Blue,5\n"+
			"24.2,Team Red, 7 \n")

	sideScores, err := ReadSideScores(path, 10)
	require.NoError(t, err, "Should read side score rows")
	require.Len(t, sideScores, 3, "Should read every row")

	assert.Equal(t, 10, sideScores[0].Points, "Missing points column should use the default")
	assert.Equal(t, 5, sideScores[1].Points, "Explicit points should override the default")
	assert.Equal(t, 7, sideScores[2].Points, "Points should be trimmed before parsing")
	assert.Equal(t, "Team Blue", sideScores[1].TeamName, "Team name should carry over")
}

func TestReadSideScores_InvalidPoints(t *testing.T) {
	path := writeCSV(t, "side_challenge.csv", "24.1,Team Red,lots\n")

	_, err := ReadSideScores(path, 10)
	assert.Error(t, err, "Non-numeric points should be rejected")
}

func TestMissingFileIsAnError(t *testing.T) {
	_, err := ReadTeamAssignments(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err, "A missing overlay file should fail the run")
}
