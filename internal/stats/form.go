package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkaplan/fastbreak/internal/providers/nbastats"
	"github.com/mkaplan/fastbreak/internal/teams"
)

// GameLogForm computes trailing-window form from the stats source's per-team
// game log.
type GameLogForm struct {
	client *nbastats.Client
	window int
}

// NewGameLogForm creates a form provider over the game-log client.
func NewGameLogForm(client *nbastats.Client, window int) *GameLogForm {
	return &GameLogForm{client: client, window: window}
}

// RecentForm fetches the team's last N games and reduces them to win
// percentage and average points. Win percentage divides by the window, not
// by the games returned, so a short log reads as a weak record rather than
// an inflated one.
func (g *GameLogForm) RecentForm(ctx context.Context, teamName string) (RecentForm, error) {
	abbr := teams.Abbreviation(teams.Canonical(teamName))

	games, err := g.client.FetchGameLog(ctx, abbr, g.window)
	if err != nil {
		return RecentForm{}, err
	}
	if len(games) == 0 {
		return RecentForm{}, fmt.Errorf("empty game log for %s", abbr)
	}

	wins := 0
	totalPts := 0.0
	for _, game := range games {
		if game.Result == "W" {
			wins++
		}
		totalPts += game.Points
	}

	return RecentForm{
		WinPct: float64(wins) / float64(g.window),
		AvgPts: totalPts / float64(len(games)),
	}, nil
}

// CachedForm wraps a FormProvider with a Redis cache so repeated lookups for
// the same team within a run (home one day, away the next) do not hammer the
// rate-limited stats source.
type CachedForm struct {
	inner FormProvider
	cache *redis.Client
	ttl   time.Duration
}

// NewCachedForm wraps the provider. A nil client disables caching.
func NewCachedForm(inner FormProvider, cache *redis.Client, ttl time.Duration) *CachedForm {
	return &CachedForm{inner: inner, cache: cache, ttl: ttl}
}

// RecentForm serves from cache when possible; cache errors fall through to
// the underlying provider rather than failing the lookup.
func (c *CachedForm) RecentForm(ctx context.Context, teamName string) (RecentForm, error) {
	if c.cache == nil {
		return c.inner.RecentForm(ctx, teamName)
	}

	key := fmt.Sprintf("fastbreak:form:%s", teams.Key(teamName))

	if raw, err := c.cache.Get(ctx, key).Result(); err == nil {
		var form RecentForm
		if err := json.Unmarshal([]byte(raw), &form); err == nil {
			return form, nil
		}
	}

	form, err := c.inner.RecentForm(ctx, teamName)
	if err != nil {
		return RecentForm{}, err
	}

	if raw, err := json.Marshal(form); err == nil {
		// best effort: a failed cache write costs one extra fetch later
		c.cache.Set(ctx, key, raw, c.ttl)
	}

	return form, nil
}
