// Package nbastats queries the NBA stats source for per-team recent game
// logs. The season-level advanced-stats table is a precomputed artifact and
// is loaded by internal/stats instead.
package nbastats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GameLogEntry is one game from a team's game log.
type GameLogEntry struct {
	GameDate string  `json:"game_date"`
	Matchup  string  `json:"matchup"`
	Result   string  `json:"wl"` // "W" or "L"
	Points   float64 `json:"pts"`
}

// Client handles NBA stats API requests
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// New creates a new stats client
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "Mozilla/5.0 (compatible; FastbreakBot/1.0)",
	}
}

// FetchGameLog fetches the most recent games for a team, newest first.
// The team is identified by its abbreviation (e.g. BOS).
func (c *Client) FetchGameLog(ctx context.Context, teamAbbr string, limit int) ([]GameLogEntry, error) {
	url := fmt.Sprintf("%s/teamgamelog?team=%s&limit=%d", c.baseURL, teamAbbr, limit)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stats API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var payload struct {
		Games []GameLogEntry `json:"games"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(payload.Games) > limit {
		payload.Games = payload.Games[:limit]
	}
	return payload.Games, nil
}
