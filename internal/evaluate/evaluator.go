// Package evaluate scores reconciled predictions: per-date accuracy, ROI by
// odds range, and the rolling accuracy and ROI series across dates.
package evaluate

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mkaplan/fastbreak/internal/store"
	"github.com/mkaplan/fastbreak/pkg/models"
	"github.com/mkaplan/fastbreak/pkg/oddsmath"
)

// Evaluator reads reconciled prediction artifacts and emits summary records.
// It never mutates prediction rows.
type Evaluator struct {
	store store.Store

	// bucket bounds in decimal-odds space; stored odds are American and are
	// converted at this boundary
	heavyFavMax float64
	moderateMax float64

	rollingWindow int
	modelVersion  string

	log *logrus.Logger
}

// New creates a new evaluator.
func New(st store.Store, heavyFavMax, moderateMax float64, rollingWindow int, modelVersion string, log *logrus.Logger) *Evaluator {
	return &Evaluator{
		store:         st,
		heavyFavMax:   heavyFavMax,
		moderateMax:   moderateMax,
		rollingWindow: rollingWindow,
		modelVersion:  modelVersion,
		log:           log,
	}
}

// bucketLabel names the odds range a predicted American-odds quote falls in.
func (e *Evaluator) bucketLabel(american int) (string, error) {
	decimal, err := oddsmath.AmericanToDecimal(american)
	if err != nil {
		return "", err
	}
	switch {
	case decimal < e.heavyFavMax:
		return fmt.Sprintf("Heavy Fav (<%g)", e.heavyFavMax), nil
	case decimal < e.moderateMax:
		return fmt.Sprintf("Moderate (%g-%g)", e.heavyFavMax, e.moderateMax), nil
	default:
		return fmt.Sprintf("Underdog (>=%g)", e.moderateMax), nil
	}
}

// bucketOrder returns the labels in display order.
func (e *Evaluator) bucketOrder() []string {
	return []string{
		fmt.Sprintf("Heavy Fav (<%g)", e.heavyFavMax),
		fmt.Sprintf("Moderate (%g-%g)", e.heavyFavMax, e.moderateMax),
		fmt.Sprintf("Underdog (>=%g)", e.moderateMax),
	}
}

// EvaluateDate computes the per-bucket summary and accuracy record for one
// reconciled date. Re-running a date whose summary already exists is a
// no-op. Rows the reconciler has not yet resolved are excluded; rows marked
// UNKNOWN count as losses, matching the settlement convention for picks
// that never matched a result.
func (e *Evaluator) EvaluateDate(date string) error {
	exists, err := e.store.SummaryExists(date)
	if err != nil {
		return fmt.Errorf("checking summary: %w", err)
	}
	if exists {
		e.log.WithField("date", date).Info("summary already exists, skipping evaluation")
		return nil
	}

	rows, err := e.store.ReadPredictions(date)
	if err != nil {
		return fmt.Errorf("reading predictions: %w", err)
	}

	type tally struct {
		bets int
		wins int
		roi  float64
		edge float64
	}
	buckets := map[string]*tally{}
	totalGames, totalWins := 0, 0

	for _, m := range rows {
		if !m.Reconciled() {
			continue
		}

		won := m.Prediction == m.ActualWinner
		roi, err := oddsmath.BetROI(m.PredictedOdds, won)
		if err != nil {
			return fmt.Errorf("%s @ %s: %w", m.AwayTeam, m.HomeTeam, err)
		}
		label, err := e.bucketLabel(m.PredictedOdds)
		if err != nil {
			return fmt.Errorf("%s @ %s: %w", m.AwayTeam, m.HomeTeam, err)
		}

		t := buckets[label]
		if t == nil {
			t = &tally{}
			buckets[label] = t
		}
		t.bets++
		t.roi += roi
		t.edge += m.ValueGap
		if won {
			t.wins++
			totalWins++
		}
		totalGames++
	}

	if totalGames == 0 {
		return fmt.Errorf("no reconciled rows for %s, cannot evaluate", date)
	}

	summaries := make([]models.BucketSummary, 0, len(buckets))
	for _, label := range e.bucketOrder() {
		t := buckets[label]
		if t == nil {
			continue
		}
		summaries = append(summaries, models.BucketSummary{
			Date:      date,
			OddsRange: label,
			TotalBets: t.bets,
			WinRate:   float64(t.wins) / float64(t.bets),
			AvgROI:    t.roi / float64(t.bets),
			AvgEdge:   t.edge / float64(t.bets),
		})
	}

	if err := e.store.WriteSummary(date, summaries); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	accuracy := float64(totalWins) / float64(totalGames)
	if err := e.store.WriteAccuracy(models.AccuracyRecord{
		Date:         date,
		ModelVersion: e.modelVersion,
		Accuracy:     accuracy,
		TotalGames:   totalGames,
	}); err != nil {
		return fmt.Errorf("writing accuracy: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"date":     date,
		"games":    totalGames,
		"accuracy": fmt.Sprintf("%.2f%%", accuracy*100),
	}).Info("date evaluated")
	return nil
}
