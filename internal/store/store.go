// Package store persists the pipeline's dated artifacts behind a backend-
// agnostic interface keyed by date (YYYY-MM-DD). The CSV backend writes the
// flat-file formats downstream dashboards read; the Postgres backend keeps
// the same records in tables.
package store

import (
	"errors"
	"fmt"

	"github.com/mkaplan/fastbreak/pkg/models"
)

// ErrNotFound is returned when no artifact exists for the requested date.
// Stages treat it as "nothing to do here", not as a pipeline failure.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence contract for every pipeline stage. Exists checks
// double as the cooperative skip-if-done guards between daily runs.
type Store interface {
	OddsExist(date string) (bool, error)
	WriteOdds(date string, lines []models.OddsLine) error
	ReadOdds(date string) ([]models.OddsLine, error)

	WriteFeatures(date string, rows []models.Matchup) error
	ReadFeatures(date string) ([]models.Matchup, error)

	PredictionsExist(date string) (bool, error)
	WritePredictions(date string, rows []models.Matchup) error
	ReadPredictions(date string) ([]models.Matchup, error)

	SummaryExists(date string) (bool, error)
	WriteSummary(date string, rows []models.BucketSummary) error
	ReadSummary(date string) ([]models.BucketSummary, error)

	WriteAccuracy(rec models.AccuracyRecord) error
	ReadAllAccuracy() ([]models.AccuracyRecord, error)

	WriteRollingAccuracy(rows []models.RollingAccuracyRow) error
	ReadRollingAccuracy() ([]models.RollingAccuracyRow, error)
	WriteRollingROI(rows []models.RollingROIRow) error
	ReadRollingROI() ([]models.RollingROIRow, error)
}

// Options carries backend-independent store settings.
type Options struct {
	// ModelVersion tags prediction and accuracy artifacts so multiple model
	// generations can coexist in the same directories.
	ModelVersion string
}

// New builds a store for the configured backend.
func New(backend string, opts Options, csvDirs CSVDirs, postgresDSN string) (Store, error) {
	switch backend {
	case "", "csv":
		return NewCSVStore(csvDirs, opts)
	case "postgres":
		return NewPostgresStore(postgresDSN, opts)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
