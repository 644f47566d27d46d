package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mkaplan/fastbreak/internal/store"
	"github.com/mkaplan/fastbreak/pkg/models"
)

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

func newRouter(st store.Store) *chi.Mux {
	h := NewHandler(st)
	r := chi.NewRouter()
	r.Get("/health", h.HealthCheck)
	r.Get("/api/predictions/{date}", h.GetPredictions)
	r.Get("/api/summary/{date}", h.GetSummary)
	r.Get("/api/rolling/accuracy", h.GetRollingAccuracy)
	r.Get("/api/rolling/roi", h.GetRollingROI)
	return r
}

func TestHealthCheck(t *testing.T) {
	r := newRouter(newStore(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestGetPredictions(t *testing.T) {
	st := newStore(t)
	const date = "2026-01-15"

	rows := []models.Matchup{{
		Date: date, HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat",
		HomeOdds: -150, AwayOdds: 130,
		ModelWinProb: 0.62, Prediction: models.SideHome,
		PredictedOdds: -150, ImpliedProb: 0.6, ValueGap: 0.02,
		ValueFlag: models.FlagNeutral,
	}}
	if err := st.WritePredictions(date, rows); err != nil {
		t.Fatal(err)
	}

	r := newRouter(st)
	req := httptest.NewRequest(http.MethodGet, "/api/predictions/"+date, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got []models.Matchup
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Prediction != models.SideHome {
		t.Errorf("body = %+v", got)
	}
}

func TestGetPredictionsMissingDateIs404(t *testing.T) {
	r := newRouter(newStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/predictions/2026-01-15", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetPredictionsRejectsBadDate(t *testing.T) {
	r := newRouter(newStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/predictions/not-a-date", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetSummary(t *testing.T) {
	st := newStore(t)
	const date = "2026-01-14"

	if err := st.WriteSummary(date, []models.BucketSummary{
		{Date: date, OddsRange: "Heavy Fav (<1.83)", TotalBets: 3, WinRate: 0.66, AvgROI: 0.1, AvgEdge: 0.02},
	}); err != nil {
		t.Fatal(err)
	}

	r := newRouter(st)
	req := httptest.NewRequest(http.MethodGet, "/api/summary/"+date, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []models.BucketSummary
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].TotalBets != 3 {
		t.Errorf("body = %+v", got)
	}
}

func TestGetRollingROISerializesEmptyBuckets(t *testing.T) {
	st := newStore(t)

	roi := 0.25
	if err := st.WriteRollingROI([]models.RollingROIRow{
		{Date: "2026-01-14", TotalBets: 4, AvgROI: 0.1, AvgEdge: 0.02, HeavyFavROI: &roi},
	}); err != nil {
		t.Fatal(err)
	}

	r := newRouter(st)
	req := httptest.NewRequest(http.MethodGet, "/api/rolling/roi", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []models.RollingROIRow
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("rolling ROI must serialize cleanly: %v", err)
	}
	if got[0].HeavyFavROI == nil || *got[0].HeavyFavROI != 0.25 {
		t.Errorf("heavy_fav_roi = %v", got[0].HeavyFavROI)
	}
	if got[0].ModerateROI != nil {
		t.Error("empty bucket should serialize as null")
	}
}
