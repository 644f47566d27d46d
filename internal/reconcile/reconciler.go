// Package reconcile fills in actual winners on a past date's prediction
// rows from the box-score results source.
package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mkaplan/fastbreak/internal/providers/oddsapi"
	"github.com/mkaplan/fastbreak/internal/store"
	"github.com/mkaplan/fastbreak/internal/teams"
	"github.com/mkaplan/fastbreak/pkg/models"
)

// result is one settled game keyed by normalized nicknames.
type resultKey struct {
	home string
	away string
}

// ScoresFetcher is the slice of the odds API client reconciliation needs.
type ScoresFetcher interface {
	FetchScores(ctx context.Context, daysFrom int) ([]oddsapi.EventScore, error)
}

// Reconciler matches prediction rows against final scores and records the
// realized winner exactly once per row.
type Reconciler struct {
	client   ScoresFetcher
	store    store.Store
	loc      *time.Location
	daysFrom int
	log      *logrus.Logger
}

// New creates a new reconciler. daysFrom bounds how far back the scores
// query reaches.
func New(client ScoresFetcher, st store.Store, loc *time.Location, daysFrom int, log *logrus.Logger) *Reconciler {
	return &Reconciler{client: client, store: st, loc: loc, daysFrom: daysFrom, log: log}
}

// Run reconciles the predictions artifact for a past date. Rows that already
// carry a winner are left untouched (actual_winner is write-once); rows with
// no matching completed game are marked UNKNOWN; games whose scores cannot
// be parsed are skipped and their rows left unresolved for a later run.
func (r *Reconciler) Run(ctx context.Context, date string) error {
	rows, err := r.store.ReadPredictions(date)
	if err != nil {
		return fmt.Errorf("reading predictions: %w", err)
	}

	pending := 0
	for _, m := range rows {
		if !m.Reconciled() {
			pending++
		}
	}
	if pending == 0 {
		r.log.WithField("date", date).Info("all rows already reconciled, skipping")
		return nil
	}

	scores, err := r.client.FetchScores(ctx, r.daysFrom)
	if err != nil {
		return fmt.Errorf("fetching scores: %w", err)
	}

	results, unresolved := r.collectResults(scores, date)

	updated := 0
	for i := range rows {
		m := &rows[i]
		if m.Reconciled() {
			continue
		}

		key := resultKey{
			home: teams.Nickname(m.HomeTeam),
			away: teams.Nickname(m.AwayTeam),
		}
		if unresolved[key] {
			// score data incomplete; leave for a later run rather than guess
			continue
		}
		if winner, ok := results[key]; ok {
			m.ActualWinner = winner
		} else {
			m.ActualWinner = models.SideUnknown
		}
		updated++
	}

	if updated == 0 {
		r.log.WithField("date", date).Info("no rows could be reconciled yet")
		return nil
	}

	if err := r.store.WritePredictions(date, rows); err != nil {
		return fmt.Errorf("writing reconciled predictions: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"date":    date,
		"updated": updated,
		"rows":    len(rows),
	}).Info("outcomes reconciled")
	return nil
}

// collectResults reduces the scores feed to a nickname-keyed winner map for
// the target date. Games with missing or unparseable scores are reported as
// unresolved so their rows stay open.
func (r *Reconciler) collectResults(scores []oddsapi.EventScore, date string) (map[resultKey]models.Side, map[resultKey]bool) {
	results := make(map[resultKey]models.Side)
	unresolved := make(map[resultKey]bool)

	for _, event := range scores {
		if event.CommenceTime.In(r.loc).Format("2006-01-02") != date {
			continue
		}

		key := resultKey{
			home: teams.Nickname(event.HomeTeam),
			away: teams.Nickname(event.AwayTeam),
		}

		if !event.Completed {
			unresolved[key] = true
			continue
		}

		homeScore, awayScore, err := parseScores(event)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"home": event.HomeTeam,
				"away": event.AwayTeam,
			}).WithError(err).Warn("unreadable score, leaving unresolved")
			unresolved[key] = true
			continue
		}

		if homeScore > awayScore {
			results[key] = models.SideHome
		} else {
			results[key] = models.SideAway
		}
	}

	return results, unresolved
}

// parseScores extracts both final scores from an event by team name.
func parseScores(event oddsapi.EventScore) (home, away int, err error) {
	foundHome, foundAway := false, false
	for _, s := range event.Scores {
		score, convErr := strconv.Atoi(strings.TrimSpace(s.Score))
		if convErr != nil {
			return 0, 0, fmt.Errorf("score %q for %s: %w", s.Score, s.Name, convErr)
		}
		switch teams.Nickname(s.Name) {
		case teams.Nickname(event.HomeTeam):
			home, foundHome = score, true
		case teams.Nickname(event.AwayTeam):
			away, foundAway = score, true
		}
	}
	if !foundHome || !foundAway {
		return 0, 0, fmt.Errorf("missing score entries")
	}
	return home, away, nil
}
