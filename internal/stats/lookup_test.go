package stats

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeForm struct {
	form RecentForm
	err  error
}

func (f *fakeForm) RecentForm(ctx context.Context, teamName string) (RecentForm, error) {
	return f.form, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestLoadSeasonTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "team_advanced_stats.csv")

	contents := "TEAM_NAME,OFF_RATING,DEF_RATING,PACE,EFG_PCT\n" +
		"Boston Celtics,120.5,110.2,98.7,0.571\n" +
		"Miami Heat,113.1,112.8,96.3,0.532\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadSeasonTable(path)
	if err != nil {
		t.Fatalf("LoadSeasonTable: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("loaded %d rows, want 2", len(table))
	}

	bos, ok := table["boston celtics"]
	if !ok {
		t.Fatal("missing lowercased key for Boston Celtics")
	}
	if math.Abs(bos.OffRating-120.5) > 0.0001 || math.Abs(bos.EFGPct-0.571) > 0.0001 {
		t.Errorf("Boston Celtics stats = %+v", bos)
	}
}

func TestLoadSeasonTableRejectsMissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")

	contents := "TEAM_NAME,OFF_RATING,DEF_RATING,PACE\nBoston Celtics,120.5,110.2,98.7\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSeasonTable(path); err == nil {
		t.Error("expected error for missing EFG_PCT column")
	}
}

func TestLookupSeason(t *testing.T) {
	table := map[string]SeasonStats{
		"boston celtics": {OffRating: 120.5, DefRating: 110.2, Pace: 98.7, EFGPct: 0.571},
	}
	l := NewLookup(table, &fakeForm{}, FallbackNeutral, 0.5, 110.0, quietLogger())

	if _, ok := l.Season("Boston Celtics"); !ok {
		t.Error("Season should match case-insensitively")
	}
	if _, ok := l.Season("Seattle SuperSonics"); ok {
		t.Error("Season of an unknown team should report ok=false")
	}
}

func TestRecentFormFallbackPolicies(t *testing.T) {
	failing := &fakeForm{err: errors.New("stats source down")}

	t.Run("neutral substitutes constants", func(t *testing.T) {
		l := NewLookup(nil, failing, FallbackNeutral, 0.5, 110.0, quietLogger())

		form, err := l.RecentForm(context.Background(), "Miami Heat")
		if err != nil {
			t.Fatalf("neutral policy should not surface the error, got %v", err)
		}
		if form.WinPct != 0.5 || form.AvgPts != 110.0 {
			t.Errorf("fallback form = %+v, want {0.5 110}", form)
		}
	})

	t.Run("strict propagates the error", func(t *testing.T) {
		l := NewLookup(nil, failing, FallbackStrict, 0.5, 110.0, quietLogger())

		if _, err := l.RecentForm(context.Background(), "Miami Heat"); err == nil {
			t.Error("strict policy should surface the lookup error")
		}
	})

	t.Run("success bypasses the policy", func(t *testing.T) {
		working := &fakeForm{form: RecentForm{WinPct: 0.8, AvgPts: 118.3}}
		l := NewLookup(nil, working, FallbackStrict, 0.5, 110.0, quietLogger())

		form, err := l.RecentForm(context.Background(), "Miami Heat")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if form.WinPct != 0.8 {
			t.Errorf("form = %+v", form)
		}
	})
}
