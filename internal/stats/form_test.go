package stats

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkaplan/fastbreak/internal/providers/nbastats"
)

func gameLogServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGameLogFormRecentForm(t *testing.T) {
	server := gameLogServer(t, `{"games": [
		{"wl": "W", "pts": 118},
		{"wl": "L", "pts": 102},
		{"wl": "W", "pts": 121},
		{"wl": "W", "pts": 109},
		{"wl": "L", "pts": 97}
	]}`)

	form := NewGameLogForm(nbastats.New(server.URL, 5*time.Second), 5)
	got, err := form.RecentForm(context.Background(), "Boston Celtics")
	if err != nil {
		t.Fatalf("RecentForm: %v", err)
	}

	if math.Abs(got.WinPct-0.6) > 0.0001 {
		t.Errorf("win pct = %f, want 0.6", got.WinPct)
	}
	want := (118.0 + 102 + 121 + 109 + 97) / 5
	if math.Abs(got.AvgPts-want) > 0.0001 {
		t.Errorf("avg pts = %f, want %f", got.AvgPts, want)
	}
}

// A short log divides wins by the window, so two wins in two games early in
// the season reads as 0.4 over a five game window, not 1.0.
func TestGameLogFormShortLog(t *testing.T) {
	server := gameLogServer(t, `{"games": [
		{"wl": "W", "pts": 110},
		{"wl": "W", "pts": 120}
	]}`)

	form := NewGameLogForm(nbastats.New(server.URL, 5*time.Second), 5)
	got, err := form.RecentForm(context.Background(), "Boston Celtics")
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(got.WinPct-0.4) > 0.0001 {
		t.Errorf("win pct = %f, want 0.4 (2 wins over window 5)", got.WinPct)
	}
	// average points still divides by the games actually played
	if math.Abs(got.AvgPts-115.0) > 0.0001 {
		t.Errorf("avg pts = %f, want 115", got.AvgPts)
	}
}

func TestGameLogFormEmptyLogIsError(t *testing.T) {
	server := gameLogServer(t, `{"games": []}`)

	form := NewGameLogForm(nbastats.New(server.URL, 5*time.Second), 5)
	if _, err := form.RecentForm(context.Background(), "Boston Celtics"); err == nil {
		t.Error("expected error for an empty game log")
	}
}

func TestCachedFormNilClientPassesThrough(t *testing.T) {
	inner := &fakeForm{form: RecentForm{WinPct: 0.7, AvgPts: 112.5}}
	cached := NewCachedForm(inner, nil, time.Hour)

	got, err := cached.RecentForm(context.Background(), "Boston Celtics")
	if err != nil {
		t.Fatal(err)
	}
	if got.WinPct != 0.7 {
		t.Errorf("form = %+v", got)
	}
}
