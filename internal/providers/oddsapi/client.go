// Package oddsapi is a thin client for The Odds API v4: the current-odds
// endpoint feeds ingestion and the scores endpoint feeds reconciliation.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Outcome is one side's quote within a bookmaker market.
type Outcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Market is one market (e.g. h2h) quoted by a bookmaker.
type Market struct {
	Key        string    `json:"key"`
	LastUpdate time.Time `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Bookmaker is one book's markets for a game.
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Game is one scheduled game with per-bookmaker odds.
type Game struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// TeamScore is one team's final score within an event.
type TeamScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// EventScore is one game's result from the scores endpoint.
type EventScore struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	Completed    bool        `json:"completed"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Scores       []TeamScore `json:"scores"`
}

// Client handles The Odds API requests
type Client struct {
	baseURL    string
	apiKey     string
	sport      string
	region     string
	market     string
	httpClient *http.Client
}

// New creates a new Odds API client
func New(baseURL, apiKey, sport, region, market string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		sport:   sport,
		region:  region,
		market:  market,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchOdds fetches the current head-to-head odds for all scheduled games,
// quoted as decimal prices.
func (c *Client) FetchOdds(ctx context.Context) ([]Game, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("regions", c.region)
	q.Set("markets", c.market)
	q.Set("oddsFormat", "decimal")

	u := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, c.sport, q.Encode())

	var games []Game
	if err := c.get(ctx, u, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// FetchScores fetches final and in-progress scores for games starting up to
// daysFrom days ago.
func (c *Client) FetchScores(ctx context.Context, daysFrom int) ([]EventScore, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("daysFrom", fmt.Sprintf("%d", daysFrom))

	u := fmt.Sprintf("%s/sports/%s/scores?%s", c.baseURL, c.sport, q.Encode())

	var scores []EventScore
	if err := c.get(ctx, u, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// get makes an HTTP GET request and decodes the JSON response
func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("odds API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
