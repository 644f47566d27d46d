package evaluate

import (
	"math"
	"testing"

	"github.com/mkaplan/fastbreak/pkg/models"
)

func TestRollingMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		window int
		want   []float64
	}{
		{
			name:   "Window larger than series",
			values: []float64{0.5, 0.7},
			window: 5,
			want:   []float64{0.5, 0.6},
		},
		{
			name:   "Trailing window of three",
			values: []float64{1, 2, 3, 4, 5},
			window: 3,
			want:   []float64{1, 1.5, 2, 3, 4},
		},
		{
			name:   "Window of one is identity",
			values: []float64{0.4, 0.9, 0.1},
			window: 1,
			want:   []float64{0.4, 0.9, 0.1},
		},
		{
			name:   "Empty series",
			values: nil,
			window: 5,
			want:   []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RollingMean(tt.values, tt.window)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("out[%d] = %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Every rolling value must stay within the min and max of its window.
func TestRollingMeanBounded(t *testing.T) {
	values := []float64{0.3, 0.9, 0.1, 0.7, 0.5, 0.8, 0.2}
	const window = 3

	got := RollingMean(values, window)
	for i := range got {
		lo, hi := values[i], values[i]
		for j := i - window + 1; j < i; j++ {
			if j < 0 {
				continue
			}
			if values[j] < lo {
				lo = values[j]
			}
			if values[j] > hi {
				hi = values[j]
			}
		}
		if got[i] < lo-1e-9 || got[i] > hi+1e-9 {
			t.Errorf("out[%d] = %f outside window bounds [%f, %f]", i, got[i], lo, hi)
		}
	}
}

func TestUpdateRolling(t *testing.T) {
	st := newStore(t)
	e := newEvaluator(st)

	dates := []string{"2026-01-12", "2026-01-13", "2026-01-14"}
	accuracies := []float64{0.5, 0.75, 0.6}
	for i, date := range dates {
		if err := st.WriteAccuracy(models.AccuracyRecord{
			Date: date, ModelVersion: "test", Accuracy: accuracies[i], TotalGames: 4,
		}); err != nil {
			t.Fatal(err)
		}
	}

	// summaries exist for the first two dates only
	heavyROI := []float64{0.2, -0.1}
	for i, date := range dates[:2] {
		if err := st.WriteSummary(date, []models.BucketSummary{
			{Date: date, OddsRange: "Heavy Fav (<1.83)", TotalBets: 3, WinRate: 0.66, AvgROI: heavyROI[i], AvgEdge: 0.02},
			{Date: date, OddsRange: "Moderate (1.83-2.5)", TotalBets: 1, WinRate: 1.0, AvgROI: 0.9, AvgEdge: 0.05},
		}); err != nil {
			t.Fatal(err)
		}
	}

	if err := e.UpdateRolling(); err != nil {
		t.Fatalf("UpdateRolling: %v", err)
	}

	accRows, err := st.ReadRollingAccuracy()
	if err != nil {
		t.Fatal(err)
	}
	if len(accRows) != 3 {
		t.Fatalf("rolling accuracy has %d rows, want 3", len(accRows))
	}
	// window 5 over three points: cumulative means
	wantRolling := []float64{0.5, 0.625, (0.5 + 0.75 + 0.6) / 3}
	for i, row := range accRows {
		if row.Date != dates[i] {
			t.Errorf("row %d date = %s, want %s", i, row.Date, dates[i])
		}
		if math.Abs(row.RollingAccuracy-wantRolling[i]) > 1e-9 {
			t.Errorf("rolling[%d] = %f, want %f", i, row.RollingAccuracy, wantRolling[i])
		}
	}

	roiRows, err := st.ReadRollingROI()
	if err != nil {
		t.Fatal(err)
	}
	// the date with no summary is skipped
	if len(roiRows) != 2 {
		t.Fatalf("rolling ROI has %d rows, want 2", len(roiRows))
	}

	first := roiRows[0]
	if first.TotalBets != 4 {
		t.Errorf("total bets = %d, want 4", first.TotalBets)
	}
	if math.Abs(first.AvgROI-(0.2+0.9)/2) > 1e-9 {
		t.Errorf("avg ROI = %f, want %f", first.AvgROI, (0.2+0.9)/2)
	}
	if first.HeavyFavROI == nil || math.Abs(*first.HeavyFavROI-0.2) > 1e-9 {
		t.Errorf("heavy fav ROI = %v, want 0.2", first.HeavyFavROI)
	}
	if first.UnderdogROI != nil {
		t.Error("underdog bucket should be nil when the range had no bets")
	}
}

func TestUpdateRollingRequiresHistory(t *testing.T) {
	st := newStore(t)
	e := newEvaluator(st)

	if err := e.UpdateRolling(); err == nil {
		t.Error("expected error when no accuracy records exist")
	}
}
