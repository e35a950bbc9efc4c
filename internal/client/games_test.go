package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRow(competitorID, name string) LeaderboardRow {
	return LeaderboardRow{
		Entrant: models.EntrantInput{
			CompetitorID:   competitorID,
			CompetitorName: name,
			Gender:         "F",
			Age:            "30",
			AffiliateID:    "31316",
		},
		Scores: []models.ScoreInput{
			{Ordinal: 1, Score: "100", ScoreDisplay: "100 reps"},
		},
	}
}

func writePage(t *testing.T, w http.ResponseWriter, rows []LeaderboardRow, totalPages int) {
	t.Helper()
	page := LeaderboardPage{
		LeaderboardRows: rows,
		Pagination:      Pagination{TotalPages: totalPages},
	}
	require.NoError(t, json.NewEncoder(w).Encode(page), "Should encode test page")
}

func TestClient_FetchDivision_Pagination(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		requests = append(requests, page)

		switch page {
		case "1":
			writePage(t, w, []LeaderboardRow{testRow("100", "Alice One"), testRow("101", "Bob Two")}, 2)
		case "2":
			writePage(t, w, []LeaderboardRow{testRow("102", "Cara Three")}, 2)
		default:
			t.Errorf("unexpected page %q requested", page)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second, 0, 2)

	entrants, scores, err := c.FetchDivision(context.Background(), server.URL, 31316, "2")
	require.NoError(t, err, "Should fetch both pages")

	assert.Equal(t, []string{"1", "2"}, requests, "Should follow pagination metadata")
	require.Len(t, entrants, 3, "Should collect every row across pages")
	assert.Len(t, scores, 3, "Score lists should stay aligned with entrants")
	assert.Equal(t, "Cara Three", entrants[2].CompetitorName, "Rows should keep page order")
}

func TestClient_FetchDivision_QueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "31316", q.Get("affiliate"), "Affiliate filter should be passed")
		assert.Equal(t, "50", q.Get("per_page"), "Page size should be passed")
		assert.Equal(t, "0", q.Get("view"), "View should be passed")
		assert.Equal(t, "19", q.Get("division"), "Division should be passed")
		writePage(t, w, nil, 1)
	}))
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second, 0, 50)

	entrants, scores, err := c.FetchDivision(context.Background(), server.URL, 31316, "19")
	require.NoError(t, err, "Empty division should not be an error")
	assert.Empty(t, entrants, "Empty division returns no entrants")
	assert.Empty(t, scores, "Empty division returns no scores")
}

func TestClient_FetchLeaderboard_DivisionFailureTolerated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("division") == "2" {
			// Non-retryable failure for one division only
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Get("division") == "1" {
			writePage(t, w, []LeaderboardRow{testRow("200", "Dan Four")}, 1)
			return
		}
		writePage(t, w, nil, 1)
	}))
	defer server.Close()

	c := NewClient(server.URL+"?season=YYYY", 5*time.Second, 0, 100)

	entrants, scores, err := c.FetchLeaderboard(context.Background(), 31316, 2024)
	require.NoError(t, err, "One failed division should not fail the fetch")
	require.Len(t, entrants, 1, "Healthy divisions should still contribute rows")
	assert.Len(t, scores, 1, "Score lists should stay aligned with entrants")
	assert.Equal(t, "Dan Four", entrants[0].CompetitorName, "Surviving row should come from the healthy division")
}

func TestClient_FetchLeaderboard_YearSubstitution(t *testing.T) {
	var mu sync.Mutex
	var seenSeason string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seenSeason = r.URL.Query().Get("season")
		mu.Unlock()
		writePage(t, w, nil, 1)
	}))
	defer server.Close()

	c := NewClient(server.URL+"?season=YYYY", 5*time.Second, 0, 100)

	_, _, err := c.FetchLeaderboard(context.Background(), 31316, 2025)
	require.NoError(t, err, "Fetch should succeed")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "2025", seenSeason, "YYYY placeholder should be replaced with the season year")
}

func TestClient_Get_RetriesRetryableStatus(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second, 0, 100)

	body, err := c.get(context.Background(), server.URL, nil)
	require.NoError(t, err, "Should succeed after retrying")
	assert.Equal(t, 2, attempts, "Should have retried once")
	assert.JSONEq(t, `{"ok":true}`, string(body), "Should return the retried body")
}

func TestClient_Get_FailsFastOnClientError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second, 0, 100)

	_, err := c.get(context.Background(), server.URL, nil)
	assert.Error(t, err, "404 should not be retried")
	assert.Equal(t, 1, attempts, "Should fail on the first attempt")
}
