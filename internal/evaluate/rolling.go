package evaluate

import (
	"errors"
	"fmt"

	"github.com/mkaplan/fastbreak/internal/store"
	"github.com/mkaplan/fastbreak/pkg/models"
)

// RollingMean returns the trailing simple moving average of the values with
// the given window and a minimum of one sample: element i averages values
// [max(0, i-window+1) .. i].
func RollingMean(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}

	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// UpdateRolling rebuilds the rolling accuracy and rolling ROI series from
// all evaluated dates, ordered chronologically.
func (e *Evaluator) UpdateRolling() error {
	records, err := e.store.ReadAllAccuracy()
	if err != nil {
		return fmt.Errorf("reading accuracy records: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no accuracy records for model %s", e.modelVersion)
	}

	accuracies := make([]float64, len(records))
	for i, rec := range records {
		accuracies[i] = rec.Accuracy
	}
	rolling := RollingMean(accuracies, e.rollingWindow)

	accuracyRows := make([]models.RollingAccuracyRow, len(records))
	for i, rec := range records {
		accuracyRows[i] = models.RollingAccuracyRow{
			Date:            rec.Date,
			Accuracy:        rec.Accuracy,
			RollingAccuracy: rolling[i],
		}
	}
	if err := e.store.WriteRollingAccuracy(accuracyRows); err != nil {
		return fmt.Errorf("writing rolling accuracy: %w", err)
	}

	roiRows, err := e.rollingROIRows(records)
	if err != nil {
		return err
	}
	if err := e.store.WriteRollingROI(roiRows); err != nil {
		return fmt.Errorf("writing rolling ROI: %w", err)
	}

	e.log.WithField("dates", len(records)).Info("rolling series updated")
	return nil
}

// rollingROIRows folds each evaluated date's bucket summary into one series
// row. Dates whose summary artifact is missing are skipped.
func (e *Evaluator) rollingROIRows(records []models.AccuracyRecord) ([]models.RollingROIRow, error) {
	order := e.bucketOrder()

	rows := make([]models.RollingROIRow, 0, len(records))
	for _, rec := range records {
		summary, err := e.store.ReadSummary(rec.Date)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("reading summary for %s: %w", rec.Date, err)
		}

		row := models.RollingROIRow{Date: rec.Date}

		roiSum, edgeSum := 0.0, 0.0
		for _, b := range summary {
			row.TotalBets += b.TotalBets
			roiSum += b.AvgROI
			edgeSum += b.AvgEdge

			roi := b.AvgROI
			switch b.OddsRange {
			case order[0]:
				row.HeavyFavROI = &roi
			case order[1]:
				row.ModerateROI = &roi
			case order[2]:
				row.UnderdogROI = &roi
			}
		}
		if len(summary) > 0 {
			row.AvgROI = roiSum / float64(len(summary))
			row.AvgEdge = edgeSum / float64(len(summary))
		}

		rows = append(rows, row)
	}

	return rows, nil
}
