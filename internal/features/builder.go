// Package features joins the day's odds with team stats and recent form into
// per-matchup feature rows.
package features

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mkaplan/fastbreak/internal/stats"
	"github.com/mkaplan/fastbreak/internal/store"
	"github.com/mkaplan/fastbreak/pkg/models"
	"github.com/mkaplan/fastbreak/pkg/oddsmath"
)

// Builder turns the dated odds artifact into feature rows.
type Builder struct {
	lookup *stats.Lookup
	store  store.Store
	log    *logrus.Logger
}

// New creates a new feature builder.
func New(lookup *stats.Lookup, st store.Store, log *logrus.Logger) *Builder {
	return &Builder{lookup: lookup, store: st, log: log}
}

// Run builds and persists feature rows for every matchup in the date's odds
// artifact. Matchups with a team missing from the season table are logged
// and skipped; they never reach prediction.
func (b *Builder) Run(ctx context.Context, date string) error {
	lines, err := b.store.ReadOdds(date)
	if err != nil {
		return fmt.Errorf("reading odds: %w", err)
	}

	rows := make([]models.Matchup, 0, len(lines))
	for _, line := range lines {
		m, err := b.build(ctx, date, line)
		if err != nil {
			b.log.WithFields(logrus.Fields{
				"home": line.HomeTeam,
				"away": line.AwayTeam,
			}).WithError(err).Warn("skipping matchup")
			continue
		}
		rows = append(rows, m)
	}

	if len(rows) == 0 {
		return fmt.Errorf("no matchups with complete stats for %s", date)
	}

	if err := b.store.WriteFeatures(date, rows); err != nil {
		return fmt.Errorf("writing features: %w", err)
	}

	b.log.WithFields(logrus.Fields{
		"date":     date,
		"matchups": len(lines),
		"retained": len(rows),
	}).Info("features built")
	return nil
}

// build assembles one feature row. Missing season stats are an error (the
// caller skips the matchup); recent form failures follow the lookup's
// fallback policy.
func (b *Builder) build(ctx context.Context, date string, line models.OddsLine) (models.Matchup, error) {
	homeStats, ok := b.lookup.Season(line.HomeTeam)
	if !ok {
		return models.Matchup{}, fmt.Errorf("no season stats for %s", line.HomeTeam)
	}
	awayStats, ok := b.lookup.Season(line.AwayTeam)
	if !ok {
		return models.Matchup{}, fmt.Errorf("no season stats for %s", line.AwayTeam)
	}

	homeForm, err := b.lookup.RecentForm(ctx, line.HomeTeam)
	if err != nil {
		return models.Matchup{}, err
	}
	awayForm, err := b.lookup.RecentForm(ctx, line.AwayTeam)
	if err != nil {
		return models.Matchup{}, err
	}

	impliedHome, err := oddsmath.ImpliedProbability(line.HomeOdds)
	if err != nil {
		return models.Matchup{}, fmt.Errorf("home odds: %w", err)
	}
	impliedAway, err := oddsmath.ImpliedProbability(line.AwayOdds)
	if err != nil {
		return models.Matchup{}, fmt.Errorf("away odds: %w", err)
	}

	return models.Matchup{
		Date:     date,
		HomeTeam: line.HomeTeam,
		AwayTeam: line.AwayTeam,
		HomeOdds: line.HomeOdds,
		AwayOdds: line.AwayOdds,

		HomeOffRating: homeStats.OffRating,
		AwayOffRating: awayStats.OffRating,
		HomeDefRating: homeStats.DefRating,
		AwayDefRating: awayStats.DefRating,
		HomeEFGPct:    homeStats.EFGPct,
		AwayEFGPct:    awayStats.EFGPct,
		HomePace:      homeStats.Pace,
		AwayPace:      awayStats.Pace,

		HomeRecentWinPct: homeForm.WinPct,
		AwayRecentWinPct: awayForm.WinPct,
		HomeRecentAvgPts: homeForm.AvgPts,
		AwayRecentAvgPts: awayForm.AvgPts,

		// cross-matchup differentials: home offense against away defense and
		// vice versa
		OffRatingDiff: homeStats.OffRating - awayStats.DefRating,
		DefRatingDiff: homeStats.DefRating - awayStats.OffRating,
		RecentWinDiff: homeForm.WinPct - awayForm.WinPct,
		PaceDiff:      homeStats.Pace - awayStats.Pace,
		OddsDiff:      line.HomeOdds - line.AwayOdds,

		ImpliedHomeWinPct: impliedHome,
		ImpliedAwayWinPct: impliedAway,
		ImpliedWinDiff:    impliedHome - impliedAway,
	}, nil
}
