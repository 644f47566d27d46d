package store

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mkaplan/fastbreak/pkg/models"
)

// CSVDirs holds the directories the flat-file backend writes under.
type CSVDirs struct {
	DataDir        string
	PredictionsDir string
	PerformanceDir string
}

// CSVStore persists every artifact as a dated, header-rowed CSV file.
type CSVStore struct {
	dirs         CSVDirs
	modelVersion string
}

// NewCSVStore creates the data directories and returns the flat-file store.
func NewCSVStore(dirs CSVDirs, opts Options) (*CSVStore, error) {
	for _, dir := range []string{dirs.DataDir, dirs.PredictionsDir, dirs.PerformanceDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return &CSVStore{dirs: dirs, modelVersion: opts.ModelVersion}, nil
}

func (s *CSVStore) oddsPath(date string) string {
	return filepath.Join(s.dirs.DataDir, fmt.Sprintf("nba_odds_%s.csv", date))
}

func (s *CSVStore) featuresPath(date string) string {
	return filepath.Join(s.dirs.DataDir, fmt.Sprintf("features_%s.csv", date))
}

func (s *CSVStore) predictionsPath(date string) string {
	return filepath.Join(s.dirs.PredictionsDir, fmt.Sprintf("predictions_%s_%s.csv", date, s.modelVersion))
}

func (s *CSVStore) summaryPath(date string) string {
	return filepath.Join(s.dirs.PerformanceDir, fmt.Sprintf("%s_summary.csv", date))
}

func (s *CSVStore) accuracyPath(date string) string {
	return filepath.Join(s.dirs.PerformanceDir, fmt.Sprintf("accuracy_%s_%s.csv", date, s.modelVersion))
}

func (s *CSVStore) rollingAccuracyPath() string {
	return filepath.Join(s.dirs.PerformanceDir, "rolling_accuracy.csv")
}

func (s *CSVStore) rollingROIPath() string {
	return filepath.Join(s.dirs.PerformanceDir, "rolling_roi.csv")
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	w.Flush()
	return w.Error()
}

// readCSV returns the header-index map and data rows of a CSV file, or
// ErrNotFound when the file does not exist.
func readCSV(path string) (map[string]int, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("reading %s: empty file", path)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	return cols, records[1:], nil
}

// field accessors tolerant of missing columns and blank cells

func cell(cols map[string]int, row []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellFloat(cols map[string]int, row []string, name string) (float64, error) {
	v := cell(cols, row, name)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

func cellInt(cols map[string]int, row []string, name string) (int, error) {
	v := cell(cols, row, name)
	if v == "" {
		return 0, nil
	}
	// odds written by older tooling sometimes carry a decimal point
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

func fmtFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// --- odds files ---

var oddsHeader = []string{"home_team", "away_team", "home_odds", "away_odds", "commence_time"}

func (s *CSVStore) OddsExist(date string) (bool, error) {
	return fileExists(s.oddsPath(date))
}

func (s *CSVStore) WriteOdds(date string, lines []models.OddsLine) error {
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []string{
			l.HomeTeam,
			l.AwayTeam,
			strconv.Itoa(l.HomeOdds),
			strconv.Itoa(l.AwayOdds),
			l.CommenceTime.UTC().Format(time.RFC3339),
		})
	}
	return writeCSV(s.oddsPath(date), oddsHeader, rows)
}

func (s *CSVStore) ReadOdds(date string) ([]models.OddsLine, error) {
	cols, rows, err := readCSV(s.oddsPath(date))
	if err != nil {
		return nil, err
	}

	lines := make([]models.OddsLine, 0, len(rows))
	for _, row := range rows {
		homeOdds, err := cellInt(cols, row, "home_odds")
		if err != nil {
			return nil, fmt.Errorf("odds file %s: %w", date, err)
		}
		awayOdds, err := cellInt(cols, row, "away_odds")
		if err != nil {
			return nil, fmt.Errorf("odds file %s: %w", date, err)
		}
		commence, err := time.Parse(time.RFC3339, cell(cols, row, "commence_time"))
		if err != nil {
			return nil, fmt.Errorf("odds file %s: %w", date, err)
		}
		lines = append(lines, models.OddsLine{
			HomeTeam:     cell(cols, row, "home_team"),
			AwayTeam:     cell(cols, row, "away_team"),
			HomeOdds:     homeOdds,
			AwayOdds:     awayOdds,
			CommenceTime: commence,
		})
	}
	return lines, nil
}

// --- matchup files (features and predictions share one schema) ---

var matchupHeader = []string{
	"date", "home_team", "away_team", "home_odds", "away_odds",
	"home_off_rating", "away_off_rating", "home_def_rating", "away_def_rating",
	"home_efg_pct", "away_efg_pct", "home_pace", "away_pace",
	"home_recent_win_pct", "away_recent_win_pct", "home_recent_avg_pts", "away_recent_avg_pts",
	"off_rating_diff", "def_rating_diff", "recent_win_diff", "pace_diff", "odds_diff",
	"implied_home_win_pct", "implied_away_win_pct", "implied_win_diff",
	"model_win_prob", "prediction", "predicted_odds", "implied_prob", "value_gap", "value_flag",
	"actual_winner",
}

func matchupRow(m models.Matchup) []string {
	predictedOdds := ""
	if m.Predicted() {
		predictedOdds = strconv.Itoa(m.PredictedOdds)
	}
	return []string{
		m.Date, m.HomeTeam, m.AwayTeam,
		strconv.Itoa(m.HomeOdds), strconv.Itoa(m.AwayOdds),
		fmtFloat(m.HomeOffRating), fmtFloat(m.AwayOffRating),
		fmtFloat(m.HomeDefRating), fmtFloat(m.AwayDefRating),
		fmtFloat(m.HomeEFGPct), fmtFloat(m.AwayEFGPct),
		fmtFloat(m.HomePace), fmtFloat(m.AwayPace),
		fmtFloat(m.HomeRecentWinPct), fmtFloat(m.AwayRecentWinPct),
		fmtFloat(m.HomeRecentAvgPts), fmtFloat(m.AwayRecentAvgPts),
		fmtFloat(m.OffRatingDiff), fmtFloat(m.DefRatingDiff),
		fmtFloat(m.RecentWinDiff), fmtFloat(m.PaceDiff),
		strconv.Itoa(m.OddsDiff),
		fmtFloat(m.ImpliedHomeWinPct), fmtFloat(m.ImpliedAwayWinPct), fmtFloat(m.ImpliedWinDiff),
		fmtFloat(m.ModelWinProb), string(m.Prediction), predictedOdds,
		fmtFloat(m.ImpliedProb), fmtFloat(m.ValueGap), string(m.ValueFlag),
		string(m.ActualWinner),
	}
}

func parseMatchup(cols map[string]int, row []string) (models.Matchup, error) {
	var m models.Matchup
	var err error

	m.Date = cell(cols, row, "date")
	m.HomeTeam = cell(cols, row, "home_team")
	m.AwayTeam = cell(cols, row, "away_team")
	m.Prediction = models.Side(cell(cols, row, "prediction"))
	m.ValueFlag = models.ValueFlag(cell(cols, row, "value_flag"))
	m.ActualWinner = models.Side(cell(cols, row, "actual_winner"))

	ints := []struct {
		dst  *int
		name string
	}{
		{&m.HomeOdds, "home_odds"},
		{&m.AwayOdds, "away_odds"},
		{&m.OddsDiff, "odds_diff"},
		{&m.PredictedOdds, "predicted_odds"},
	}
	for _, f := range ints {
		if *f.dst, err = cellInt(cols, row, f.name); err != nil {
			return m, fmt.Errorf("column %s: %w", f.name, err)
		}
	}

	floats := []struct {
		dst  *float64
		name string
	}{
		{&m.HomeOffRating, "home_off_rating"},
		{&m.AwayOffRating, "away_off_rating"},
		{&m.HomeDefRating, "home_def_rating"},
		{&m.AwayDefRating, "away_def_rating"},
		{&m.HomeEFGPct, "home_efg_pct"},
		{&m.AwayEFGPct, "away_efg_pct"},
		{&m.HomePace, "home_pace"},
		{&m.AwayPace, "away_pace"},
		{&m.HomeRecentWinPct, "home_recent_win_pct"},
		{&m.AwayRecentWinPct, "away_recent_win_pct"},
		{&m.HomeRecentAvgPts, "home_recent_avg_pts"},
		{&m.AwayRecentAvgPts, "away_recent_avg_pts"},
		{&m.OffRatingDiff, "off_rating_diff"},
		{&m.DefRatingDiff, "def_rating_diff"},
		{&m.RecentWinDiff, "recent_win_diff"},
		{&m.PaceDiff, "pace_diff"},
		{&m.ImpliedHomeWinPct, "implied_home_win_pct"},
		{&m.ImpliedAwayWinPct, "implied_away_win_pct"},
		{&m.ImpliedWinDiff, "implied_win_diff"},
		{&m.ModelWinProb, "model_win_prob"},
		{&m.ImpliedProb, "implied_prob"},
		{&m.ValueGap, "value_gap"},
	}
	for _, f := range floats {
		if *f.dst, err = cellFloat(cols, row, f.name); err != nil {
			return m, fmt.Errorf("column %s: %w", f.name, err)
		}
	}

	return m, nil
}

func writeMatchups(path string, rows []models.Matchup) error {
	records := make([][]string, 0, len(rows))
	for _, m := range rows {
		records = append(records, matchupRow(m))
	}
	return writeCSV(path, matchupHeader, records)
}

func readMatchups(path string) ([]models.Matchup, error) {
	cols, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	matchups := make([]models.Matchup, 0, len(rows))
	for _, row := range rows {
		m, err := parseMatchup(cols, row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		matchups = append(matchups, m)
	}
	return matchups, nil
}

func (s *CSVStore) WriteFeatures(date string, rows []models.Matchup) error {
	return writeMatchups(s.featuresPath(date), rows)
}

func (s *CSVStore) ReadFeatures(date string) ([]models.Matchup, error) {
	return readMatchups(s.featuresPath(date))
}

func (s *CSVStore) PredictionsExist(date string) (bool, error) {
	return fileExists(s.predictionsPath(date))
}

func (s *CSVStore) WritePredictions(date string, rows []models.Matchup) error {
	return writeMatchups(s.predictionsPath(date), rows)
}

func (s *CSVStore) ReadPredictions(date string) ([]models.Matchup, error) {
	return readMatchups(s.predictionsPath(date))
}

// --- evaluation summaries ---

var summaryHeader = []string{"date", "odds_range", "total_bets", "win_rate", "avg_roi", "avg_edge"}

func (s *CSVStore) SummaryExists(date string) (bool, error) {
	return fileExists(s.summaryPath(date))
}

func (s *CSVStore) WriteSummary(date string, rows []models.BucketSummary) error {
	records := make([][]string, 0, len(rows))
	for _, b := range rows {
		records = append(records, []string{
			b.Date, b.OddsRange, strconv.Itoa(b.TotalBets),
			fmtFloat(b.WinRate), fmtFloat(b.AvgROI), fmtFloat(b.AvgEdge),
		})
	}
	return writeCSV(s.summaryPath(date), summaryHeader, records)
}

func (s *CSVStore) ReadSummary(date string) ([]models.BucketSummary, error) {
	cols, rows, err := readCSV(s.summaryPath(date))
	if err != nil {
		return nil, err
	}

	summaries := make([]models.BucketSummary, 0, len(rows))
	for _, row := range rows {
		b := models.BucketSummary{
			Date:      cell(cols, row, "date"),
			OddsRange: cell(cols, row, "odds_range"),
		}
		if b.TotalBets, err = cellInt(cols, row, "total_bets"); err != nil {
			return nil, err
		}
		if b.WinRate, err = cellFloat(cols, row, "win_rate"); err != nil {
			return nil, err
		}
		if b.AvgROI, err = cellFloat(cols, row, "avg_roi"); err != nil {
			return nil, err
		}
		if b.AvgEdge, err = cellFloat(cols, row, "avg_edge"); err != nil {
			return nil, err
		}
		summaries = append(summaries, b)
	}
	return summaries, nil
}

// --- accuracy records and rolling series ---

var accuracyHeader = []string{"date", "model", "accuracy", "total_games"}

func (s *CSVStore) WriteAccuracy(rec models.AccuracyRecord) error {
	return writeCSV(s.accuracyPath(rec.Date), accuracyHeader, [][]string{{
		rec.Date, rec.ModelVersion, fmtFloat(rec.Accuracy), strconv.Itoa(rec.TotalGames),
	}})
}

// ReadAllAccuracy scans the performance directory for this model version's
// per-date accuracy files and returns them ordered by date.
func (s *CSVStore) ReadAllAccuracy() ([]models.AccuracyRecord, error) {
	pattern := filepath.Join(s.dirs.PerformanceDir, fmt.Sprintf("accuracy_*_%s.csv", s.modelVersion))
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var records []models.AccuracyRecord
	for _, path := range paths {
		cols, rows, err := readCSV(path)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			rec := models.AccuracyRecord{
				Date:         cell(cols, row, "date"),
				ModelVersion: cell(cols, row, "model"),
			}
			if rec.Accuracy, err = cellFloat(cols, row, "accuracy"); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			if rec.TotalGames, err = cellInt(cols, row, "total_games"); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return records, nil
}

var rollingAccuracyHeader = []string{"date", "accuracy", "rolling_accuracy"}

func (s *CSVStore) WriteRollingAccuracy(rows []models.RollingAccuracyRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Date, fmtFloat(r.Accuracy), fmtFloat(r.RollingAccuracy)})
	}
	return writeCSV(s.rollingAccuracyPath(), rollingAccuracyHeader, records)
}

func (s *CSVStore) ReadRollingAccuracy() ([]models.RollingAccuracyRow, error) {
	cols, rows, err := readCSV(s.rollingAccuracyPath())
	if err != nil {
		return nil, err
	}

	out := make([]models.RollingAccuracyRow, 0, len(rows))
	for _, row := range rows {
		r := models.RollingAccuracyRow{Date: cell(cols, row, "date")}
		if r.Accuracy, err = cellFloat(cols, row, "accuracy"); err != nil {
			return nil, err
		}
		if r.RollingAccuracy, err = cellFloat(cols, row, "rolling_accuracy"); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

var rollingROIHeader = []string{"date", "total_bets", "avg_roi", "avg_edge", "heavy_fav_roi", "moderate_roi", "underdog_roi"}

func (s *CSVStore) WriteRollingROI(rows []models.RollingROIRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Date, strconv.Itoa(r.TotalBets), fmtFloat(r.AvgROI), fmtFloat(r.AvgEdge),
			fmtFloatPtr(r.HeavyFavROI), fmtFloatPtr(r.ModerateROI), fmtFloatPtr(r.UnderdogROI),
		})
	}
	return writeCSV(s.rollingROIPath(), rollingROIHeader, records)
}

func (s *CSVStore) ReadRollingROI() ([]models.RollingROIRow, error) {
	cols, rows, err := readCSV(s.rollingROIPath())
	if err != nil {
		return nil, err
	}

	out := make([]models.RollingROIRow, 0, len(rows))
	for _, row := range rows {
		r := models.RollingROIRow{Date: cell(cols, row, "date")}
		if r.TotalBets, err = cellInt(cols, row, "total_bets"); err != nil {
			return nil, err
		}
		if r.AvgROI, err = cellFloat(cols, row, "avg_roi"); err != nil {
			return nil, err
		}
		if r.AvgEdge, err = cellFloat(cols, row, "avg_edge"); err != nil {
			return nil, err
		}
		// blank bucket cells mean no bets in that range that day
		r.HeavyFavROI = bucketCell(cols, row, "heavy_fav_roi")
		r.ModerateROI = bucketCell(cols, row, "moderate_roi")
		r.UnderdogROI = bucketCell(cols, row, "underdog_roi")
		out = append(out, r)
	}
	return out, nil
}

func fmtFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return fmtFloat(*f)
}

func bucketCell(cols map[string]int, row []string, name string) *float64 {
	v := cell(cols, row, name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
