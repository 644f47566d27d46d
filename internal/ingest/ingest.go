// Package ingest fetches the day's market odds and persists them as the
// dated odds artifact the rest of the pipeline keys off.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mkaplan/fastbreak/internal/providers/oddsapi"
	"github.com/mkaplan/fastbreak/internal/store"
	"github.com/mkaplan/fastbreak/pkg/models"
	"github.com/mkaplan/fastbreak/pkg/oddsmath"
)

// OddsFetcher is the slice of the odds API client ingestion needs.
type OddsFetcher interface {
	FetchOdds(ctx context.Context) ([]oddsapi.Game, error)
}

// Ingestor fetches current odds, converts them to American format, filters
// to the target date, and writes the odds artifact.
type Ingestor struct {
	client OddsFetcher
	store  store.Store
	loc    *time.Location
	log    *logrus.Logger
}

// New creates a new ingestor. loc is the operating timezone games are
// assigned to dates in.
func New(client OddsFetcher, st store.Store, loc *time.Location, log *logrus.Logger) *Ingestor {
	return &Ingestor{client: client, store: st, loc: loc, log: log}
}

// Run ingests odds for the given date (YYYY-MM-DD). If the odds artifact
// already exists the fetch is skipped entirely: odds are captured at most
// once per day, deliberately not refreshed. A failed fetch aborts without
// partial writes.
func (i *Ingestor) Run(ctx context.Context, date string) error {
	exists, err := i.store.OddsExist(date)
	if err != nil {
		return fmt.Errorf("checking odds artifact: %w", err)
	}
	if exists {
		i.log.WithField("date", date).Info("odds already captured, skipping fetch")
		return nil
	}

	games, err := i.client.FetchOdds(ctx)
	if err != nil {
		return fmt.Errorf("fetching odds: %w", err)
	}

	lines := make([]models.OddsLine, 0, len(games))
	for _, game := range games {
		line, ok := i.toLine(game)
		if !ok {
			continue
		}
		if line.CommenceTime.In(i.loc).Format("2006-01-02") != date {
			continue
		}
		lines = append(lines, line)
	}

	if err := i.store.WriteOdds(date, lines); err != nil {
		return fmt.Errorf("writing odds: %w", err)
	}

	i.log.WithFields(logrus.Fields{
		"date":    date,
		"games":   len(games),
		"matched": len(lines),
	}).Info("odds captured")
	return nil
}

// toLine extracts the first bookmaker's head-to-head quote for a game and
// converts it to American odds. Games without a usable two-sided quote are
// dropped.
func (i *Ingestor) toLine(game oddsapi.Game) (models.OddsLine, bool) {
	if len(game.Bookmakers) == 0 {
		return models.OddsLine{}, false
	}

	var homeDecimal, awayDecimal float64
	for _, market := range game.Bookmakers[0].Markets {
		if market.Key != "h2h" {
			continue
		}
		for _, outcome := range market.Outcomes {
			switch outcome.Name {
			case game.HomeTeam:
				homeDecimal = outcome.Price
			case game.AwayTeam:
				awayDecimal = outcome.Price
			}
		}
		break
	}
	if homeDecimal == 0 || awayDecimal == 0 {
		return models.OddsLine{}, false
	}

	homeOdds, err := oddsmath.DecimalToAmerican(homeDecimal)
	if err != nil {
		i.log.WithField("game", game.ID).WithError(err).Warn("bad home price, dropping game")
		return models.OddsLine{}, false
	}
	awayOdds, err := oddsmath.DecimalToAmerican(awayDecimal)
	if err != nil {
		i.log.WithField("game", game.ID).WithError(err).Warn("bad away price, dropping game")
		return models.OddsLine{}, false
	}

	return models.OddsLine{
		HomeTeam:     game.HomeTeam,
		AwayTeam:     game.AwayTeam,
		HomeOdds:     homeOdds,
		AwayOdds:     awayOdds,
		CommenceTime: game.CommenceTime,
	}, true
}
