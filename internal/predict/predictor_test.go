package predict

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mkaplan/fastbreak/internal/store"
	"github.com/mkaplan/fastbreak/pkg/models"
)

// stubModel returns a fixed probability, or a failure for named matchups.
type stubModel struct {
	prob    float64
	failOdds map[float64]bool // keyed on home_odds, marks rows that should fail
}

func (s *stubModel) PredictProb(features map[string]float64) (float64, error) {
	if s.failOdds[features["home_odds"]] {
		return 0, os.ErrInvalid
	}
	return s.prob, nil
}

func (s *stubModel) Version() string { return "test" }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.New("csv", store.Options{ModelVersion: "test"}, store.CSVDirs{
		DataDir:        dir + "/data",
		PredictionsDir: dir + "/predictions",
		PerformanceDir: dir + "/performance",
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func featureRow(date string) models.Matchup {
	return models.Matchup{
		Date:              date,
		HomeTeam:          "Boston Celtics",
		AwayTeam:          "Miami Heat",
		HomeOdds:          -150,
		AwayOdds:          130,
		OddsDiff:          -280,
		ImpliedHomeWinPct: 0.6,
		ImpliedAwayWinPct: 100.0 / 230.0,
	}
}

func TestRunDerivesPredictionFields(t *testing.T) {
	st := newStore(t)
	const date = "2026-01-15"

	if err := st.WriteFeatures(date, []models.Matchup{featureRow(date)}); err != nil {
		t.Fatal(err)
	}

	p := New(&stubModel{prob: 0.62}, st, 0.03, -0.03, quietLogger())
	if err := p.Run(context.Background(), date); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rows, err := st.ReadPredictions(date)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("read %d rows, want 1", len(rows))
	}

	m := rows[0]
	if m.Prediction != models.SideHome {
		t.Errorf("prediction = %s, want HOME", m.Prediction)
	}
	if m.PredictedOdds != -150 {
		t.Errorf("predicted_odds = %d, want -150 (home quote)", m.PredictedOdds)
	}
	if math.Abs(m.ImpliedProb-0.6) > 0.0001 {
		t.Errorf("implied_prob = %f, want 0.6", m.ImpliedProb)
	}
	if math.Abs(m.ValueGap-0.02) > 0.0001 {
		t.Errorf("value_gap = %f, want 0.02", m.ValueGap)
	}
	if m.ValueFlag != models.FlagNeutral {
		t.Errorf("value_flag = %s, want NEUTRAL (gap within thresholds)", m.ValueFlag)
	}
}

func TestRunPicksAwaySide(t *testing.T) {
	st := newStore(t)
	const date = "2026-01-15"

	if err := st.WriteFeatures(date, []models.Matchup{featureRow(date)}); err != nil {
		t.Fatal(err)
	}

	p := New(&stubModel{prob: 0.40}, st, 0.03, -0.03, quietLogger())
	if err := p.Run(context.Background(), date); err != nil {
		t.Fatal(err)
	}

	rows, err := st.ReadPredictions(date)
	if err != nil {
		t.Fatal(err)
	}

	m := rows[0]
	if m.Prediction != models.SideAway {
		t.Errorf("prediction = %s, want AWAY", m.Prediction)
	}
	if m.PredictedOdds != 130 {
		t.Errorf("predicted_odds = %d, want 130 (away quote)", m.PredictedOdds)
	}
	// value gap stays anchored to the home-win probability
	wantGap := 0.40 - 100.0/230.0
	if math.Abs(m.ValueGap-wantGap) > 0.0001 {
		t.Errorf("value_gap = %f, want %f", m.ValueGap, wantGap)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	st := newStore(t)
	const date = "2026-01-15"

	if err := st.WriteFeatures(date, []models.Matchup{featureRow(date)}); err != nil {
		t.Fatal(err)
	}

	first := New(&stubModel{prob: 0.62}, st, 0.03, -0.03, quietLogger())
	if err := first.Run(context.Background(), date); err != nil {
		t.Fatal(err)
	}
	before, err := st.ReadPredictions(date)
	if err != nil {
		t.Fatal(err)
	}

	// a second run with a different model must not overwrite flagged rows
	second := New(&stubModel{prob: 0.10}, st, 0.03, -0.03, quietLogger())
	if err := second.Run(context.Background(), date); err != nil {
		t.Fatal(err)
	}
	after, err := st.ReadPredictions(date)
	if err != nil {
		t.Fatal(err)
	}

	if len(before) != len(after) {
		t.Fatalf("row count changed from %d to %d", len(before), len(after))
	}
	if after[0].ModelWinProb != before[0].ModelWinProb || after[0].Prediction != before[0].Prediction {
		t.Error("second run rewrote an already flagged artifact")
	}
}

func TestRunDropsFailingRows(t *testing.T) {
	st := newStore(t)
	const date = "2026-01-15"

	good := featureRow(date)
	bad := featureRow(date)
	bad.HomeTeam = "Denver Nuggets"
	bad.AwayTeam = "Utah Jazz"
	bad.HomeOdds = -200
	if err := st.WriteFeatures(date, []models.Matchup{good, bad}); err != nil {
		t.Fatal(err)
	}

	m := &stubModel{prob: 0.62, failOdds: map[float64]bool{-200: true}}
	p := New(m, st, 0.03, -0.03, quietLogger())
	if err := p.Run(context.Background(), date); err != nil {
		t.Fatal(err)
	}

	rows, err := st.ReadPredictions(date)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("read %d rows, want 1 (failing row dropped)", len(rows))
	}
	if rows[0].HomeTeam != "Boston Celtics" {
		t.Errorf("kept row = %s", rows[0].HomeTeam)
	}
}

func TestRunFailsWhenNothingScorable(t *testing.T) {
	st := newStore(t)
	const date = "2026-01-15"

	row := featureRow(date)
	if err := st.WriteFeatures(date, []models.Matchup{row}); err != nil {
		t.Fatal(err)
	}

	m := &stubModel{failOdds: map[float64]bool{-150: true}}
	p := New(m, st, 0.03, -0.03, quietLogger())
	if err := p.Run(context.Background(), date); err == nil {
		t.Error("expected error when every row fails scoring")
	}
}
