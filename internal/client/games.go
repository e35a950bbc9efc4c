package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shobhanb/cf-open-intramural-webapp/internal/metrics"
	"github.com/shobhanb/cf-open-intramural-webapp/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DivisionMap lists every gender × age-bracket division code the Open
// leaderboard serves. All divisions are fetched; membership overlap between
// divisions is resolved during reconciliation by competitor id.
var DivisionMap = map[string]string{
	"1":  "Men Open",
	"2":  "Women Open",
	"18": "Men 35-39",
	"19": "Women 35-39",
	"12": "Men 40-44",
	"13": "Women 40-44",
	"3":  "Men 45-49",
	"4":  "Women 45-49",
	"5":  "Men 50-54",
	"6":  "Women 50-54",
	"7":  "Men 55-59",
	"8":  "Women 55-59",
	"36": "Men 60-64",
	"37": "Women 60-64",
	"38": "Men 65+",
	"39": "Women 65+",
	"16": "Men 16-17",
	"17": "Women 16-17",
	"14": "Men 14-15",
	"15": "Women 14-15",
}

// LeaderboardRow pairs an entrant with their per-event scores
type LeaderboardRow struct {
	Entrant models.EntrantInput `json:"entrant"`
	Scores  []models.ScoreInput `json:"scores"`
}

// Pagination is the paging metadata on a leaderboard page
type Pagination struct {
	TotalPages int `json:"totalPages"`
}

// LeaderboardPage is one page of a division's leaderboard
type LeaderboardPage struct {
	LeaderboardRows []LeaderboardRow `json:"leaderboardRows"`
	Pagination      Pagination       `json:"pagination"`
}

// Client is the CrossFit Games leaderboard API client
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
	throttle   *rate.Limiter // inter-page throttle, nil when disabled
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a new leaderboard API client. The base URL carries a
// YYYY placeholder for the season year. A non-zero throttle spaces out
// successive page requests within a division.
func NewClient(baseURL string, timeout, throttle time.Duration, pageSize int) *Client {
	var limiter *rate.Limiter
	if throttle > 0 {
		limiter = rate.NewLimiter(rate.Every(throttle), 1)
	}

	return &Client{
		baseURL:    baseURL,
		pageSize:   pageSize,
		throttle:   limiter,
		maxRetries: 3,
		retryDelay: 1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request against the leaderboard API with retry logic
func (c *Client) get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "cf-open-intramural/1.0")

		if len(params) > 0 {
			q := req.URL.Query()
			for key, value := range params {
				q.Add(key, value)
			}
			req.URL.RawQuery = q.Encode()
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordAPICall("leaderboard", "error", time.Since(start).Seconds())
			lastErr = fmt.Errorf("API request failed: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		metrics.RecordAPICall("leaderboard", strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

		switch resp.StatusCode {
		case http.StatusOK:
			return body, nil

		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			lastErr = fmt.Errorf("API returned retryable status %d: %s", resp.StatusCode, string(body))
			if attempt < c.maxRetries {
				log.Warn().
					Str("url", url).
					Int("status", resp.StatusCode).
					Int("attempt", attempt+1).
					Msg("Received retryable error, will retry")
				continue
			}
			return nil, lastErr

		default:
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, lastErr
}

// FetchDivision fetches every leaderboard page for one division, following
// the server's pagination metadata until the last page is reached
func (c *Client) FetchDivision(
	ctx context.Context,
	url string,
	affiliateID int,
	division string,
) ([]models.EntrantInput, [][]models.ScoreInput, error) {
	var entrants []models.EntrantInput
	var scores [][]models.ScoreInput

	page := 1
	for {
		if c.throttle != nil {
			if err := c.throttle.Wait(ctx); err != nil {
				return nil, nil, err
			}
		}

		params := map[string]string{
			"affiliate": strconv.Itoa(affiliateID),
			"page":      strconv.Itoa(page),
			"per_page":  strconv.Itoa(c.pageSize),
			"view":      "0",
			"division":  division,
		}

		body, err := c.get(ctx, url, params)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch division %s page %d: %w", division, page, err)
		}

		var lbPage LeaderboardPage
		if err := json.Unmarshal(body, &lbPage); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal division %s page %d: %w", division, page, err)
		}

		for _, row := range lbPage.LeaderboardRows {
			entrants = append(entrants, row.Entrant)
			scores = append(scores, row.Scores)
		}

		if lbPage.Pagination.TotalPages <= page {
			break
		}
		page++
	}

	log.Debug().
		Str("division", division).
		Int("pages", page).
		Int("entrants", len(entrants)).
		Msg("Division leaderboard fetched")

	return entrants, scores, nil
}

// FetchLeaderboard fetches every division's leaderboard for the affiliate
// and season in parallel. A failed division is logged and contributes zero
// rows; the sync proceeds degraded rather than failing atomically. The two
// returned slices are equal length and positionally aligned.
func (c *Client) FetchLeaderboard(
	ctx context.Context,
	affiliateID, year int,
) ([]models.EntrantInput, [][]models.ScoreInput, error) {
	url := strings.Replace(c.baseURL, "YYYY", strconv.Itoa(year), 1)

	log.Info().
		Int("year", year).
		Int("affiliate_id", affiliateID).
		Int("divisions", len(DivisionMap)).
		Msg("Fetching leaderboard data")

	var mu sync.Mutex
	var entrantList []models.EntrantInput
	var scoresList [][]models.ScoreInput

	g, gctx := errgroup.WithContext(ctx)
	for division := range DivisionMap {
		division := division
		g.Go(func() error {
			entrants, scores, err := c.FetchDivision(gctx, url, affiliateID, division)
			if err != nil {
				// Partial-result policy: one bad division must not
				// abort the others.
				log.Warn().
					Err(err).
					Str("division", division).
					Str("division_name", DivisionMap[division]).
					Msg("Division fetch failed, continuing without it")
				metrics.RecordError("client", "division_fetch")
				return nil
			}

			mu.Lock()
			entrantList = append(entrantList, entrants...)
			scoresList = append(scoresList, scores...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	log.Info().
		Int("entrants", len(entrantList)).
		Int("score_lists", len(scoresList)).
		Msg("Leaderboard data downloaded")

	return entrantList, scoresList, nil
}
