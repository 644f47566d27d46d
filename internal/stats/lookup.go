// Package stats resolves a team name to its season-level advanced stats and
// its recent-game form. Season stats are required (callers skip matchups
// whose teams are missing); recent form is best-effort, with a configurable
// fallback policy.
package stats

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mkaplan/fastbreak/internal/teams"
)

// SeasonStats are a team's season-level advanced stats.
type SeasonStats struct {
	OffRating float64
	DefRating float64
	Pace      float64
	EFGPct    float64
}

// RecentForm is a team's trailing-window form.
type RecentForm struct {
	WinPct float64
	AvgPts float64
}

// FormProvider fetches a team's recent form from an external game-log source.
type FormProvider interface {
	RecentForm(ctx context.Context, teamName string) (RecentForm, error)
}

// FallbackPolicy selects what happens when a recent-form lookup fails.
type FallbackPolicy string

const (
	// FallbackNeutral substitutes neutral constants on failure.
	FallbackNeutral FallbackPolicy = "neutral"
	// FallbackStrict surfaces the lookup error instead.
	FallbackStrict FallbackPolicy = "strict"
)

// Lookup serves season stats from a preloaded table and recent form from a
// provider, applying the configured missing-data policy.
type Lookup struct {
	table map[string]SeasonStats
	form  FormProvider

	policy         FallbackPolicy
	fallbackWinPct float64
	fallbackAvgPts float64

	log *logrus.Logger
}

// NewLookup builds a Lookup over a season table.
func NewLookup(table map[string]SeasonStats, form FormProvider, policy FallbackPolicy, fallbackWinPct, fallbackAvgPts float64, log *logrus.Logger) *Lookup {
	return &Lookup{
		table:          table,
		form:           form,
		policy:         policy,
		fallbackWinPct: fallbackWinPct,
		fallbackAvgPts: fallbackAvgPts,
		log:            log,
	}
}

// Season returns the season stats for a team, or ok=false when the team has
// no row in the season table. Absence means "skip this matchup", never an
// error.
func (l *Lookup) Season(teamName string) (SeasonStats, bool) {
	s, ok := l.table[teams.Key(teamName)]
	return s, ok
}

// RecentForm returns a team's trailing-window form. Under the neutral policy
// any lookup failure yields the fallback constants; under the strict policy
// the error propagates.
func (l *Lookup) RecentForm(ctx context.Context, teamName string) (RecentForm, error) {
	form, err := l.form.RecentForm(ctx, teamName)
	if err == nil {
		return form, nil
	}

	if l.policy == FallbackStrict {
		return RecentForm{}, fmt.Errorf("recent form for %s: %w", teamName, err)
	}

	l.log.WithFields(logrus.Fields{
		"team":  teamName,
		"error": err.Error(),
	}).Debug("recent form lookup failed, using neutral fallback")

	return RecentForm{WinPct: l.fallbackWinPct, AvgPts: l.fallbackAvgPts}, nil
}

// LoadSeasonTable reads the precomputed advanced-stats CSV (one row per team:
// TEAM_NAME, OFF_RATING, DEF_RATING, PACE, EFG_PCT) into a lowercased-name
// lookup table.
func LoadSeasonTable(path string) (map[string]SeasonStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening season stats: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading season stats: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("season stats table %s has no rows", path)
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"TEAM_NAME", "OFF_RATING", "DEF_RATING", "PACE", "EFG_PCT"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("season stats table missing column %s", required)
		}
	}

	table := make(map[string]SeasonStats, len(records)-1)
	for _, row := range records[1:] {
		name := strings.TrimSpace(row[cols["TEAM_NAME"]])
		if name == "" {
			continue
		}

		var s SeasonStats
		var convErr error
		parse := func(col string) float64 {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[cols[col]]), 64)
			if err != nil && convErr == nil {
				convErr = fmt.Errorf("team %s column %s: %w", name, col, err)
			}
			return v
		}
		s.OffRating = parse("OFF_RATING")
		s.DefRating = parse("DEF_RATING")
		s.Pace = parse("PACE")
		s.EFGPct = parse("EFG_PCT")
		if convErr != nil {
			return nil, convErr
		}

		table[teams.Key(name)] = s
	}

	return table, nil
}
