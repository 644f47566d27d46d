// Package predict scores the day's feature rows with the pretrained
// classifier and derives the pick, value gap, and value flag for each.
package predict

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mkaplan/fastbreak/internal/model"
	"github.com/mkaplan/fastbreak/internal/store"
	"github.com/mkaplan/fastbreak/pkg/models"
	"github.com/mkaplan/fastbreak/pkg/oddsmath"
)

// Predictor enriches feature rows into prediction rows and persists the
// dated predictions artifact.
type Predictor struct {
	model model.Model
	store store.Store

	valueThreshold   float64
	cautionThreshold float64

	log *logrus.Logger
}

// New creates a new predictor.
func New(m model.Model, st store.Store, valueThreshold, cautionThreshold float64, log *logrus.Logger) *Predictor {
	return &Predictor{
		model:            m,
		store:            st,
		valueThreshold:   valueThreshold,
		cautionThreshold: cautionThreshold,
		log:              log,
	}
}

// Run predicts every feature row for the date and writes the predictions
// artifact. Re-runs are idempotent: when a persisted artifact already has a
// value flag on every row, prediction is skipped and the file is untouched.
// Rows that fail scoring are dropped, never fatal to the run.
func (p *Predictor) Run(ctx context.Context, date string) error {
	if done, err := p.alreadyPredicted(date); err != nil {
		p.log.WithField("date", date).WithError(err).Warn("could not check existing predictions")
	} else if done {
		p.log.WithField("date", date).Info("predictions already flagged, skipping")
		return nil
	}

	rows, err := p.store.ReadFeatures(date)
	if err != nil {
		return fmt.Errorf("reading features: %w", err)
	}

	predicted := make([]models.Matchup, 0, len(rows))
	for _, m := range rows {
		if err := p.predict(&m); err != nil {
			p.log.WithFields(logrus.Fields{
				"home": m.HomeTeam,
				"away": m.AwayTeam,
			}).WithError(err).Warn("dropping row")
			continue
		}
		predicted = append(predicted, m)
	}

	if len(predicted) == 0 {
		return fmt.Errorf("no scorable rows for %s", date)
	}

	if err := p.store.WritePredictions(date, predicted); err != nil {
		return fmt.Errorf("writing predictions: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"date":  date,
		"model": p.model.Version(),
		"rows":  len(predicted),
	}).Info("predictions written")
	return nil
}

// alreadyPredicted reports whether a persisted artifact exists for the date
// with every row flagged.
func (p *Predictor) alreadyPredicted(date string) (bool, error) {
	exists, err := p.store.PredictionsExist(date)
	if err != nil || !exists {
		return false, err
	}

	rows, err := p.store.ReadPredictions(date)
	if err != nil {
		return false, err
	}
	for _, m := range rows {
		if !m.Predicted() {
			return false, nil
		}
	}
	return len(rows) > 0, nil
}

// predict fills the prediction fields of one row in place. Every derived
// field is a pure function of the model probability and the odds.
func (p *Predictor) predict(m *models.Matchup) error {
	prob, err := p.model.PredictProb(m.Features())
	if err != nil {
		return err
	}

	m.ModelWinProb = prob
	m.Prediction = models.PredictionFromProb(prob)

	if m.Prediction == models.SideHome {
		m.PredictedOdds = m.HomeOdds
	} else {
		m.PredictedOdds = m.AwayOdds
	}

	implied, err := oddsmath.ImpliedProbability(m.PredictedOdds)
	if err != nil {
		return fmt.Errorf("predicted odds: %w", err)
	}
	m.ImpliedProb = implied
	m.ValueGap = prob - implied
	m.ValueFlag = models.FlagFromGap(m.ValueGap, p.valueThreshold, p.cautionThreshold)

	return nil
}
