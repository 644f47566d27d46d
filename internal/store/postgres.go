package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/mkaplan/fastbreak/pkg/models"
)

// PostgresStore keeps the same dated artifacts in Postgres tables. Writes for
// a date replace that date's rows in a transaction, mirroring the CSV
// backend's whole-file rewrites.
type PostgresStore struct {
	db           *sql.DB
	modelVersion string
}

// NewPostgresStore connects, verifies the connection, and creates the tables
// if they do not exist.
func NewPostgresStore(dsn string, opts Options) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres backend selected but no DSN configured")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &PostgresStore{db: db, modelVersion: opts.ModelVersion}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS odds_lines (
			date TEXT NOT NULL,
			home_team TEXT NOT NULL,
			away_team TEXT NOT NULL,
			home_odds INT NOT NULL,
			away_odds INT NOT NULL,
			commence_time TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (date, home_team, away_team)
		)`,
		`CREATE TABLE IF NOT EXISTS matchups (
			kind TEXT NOT NULL,
			model_version TEXT NOT NULL,
			date TEXT NOT NULL,
			home_team TEXT NOT NULL,
			away_team TEXT NOT NULL,
			home_odds INT NOT NULL,
			away_odds INT NOT NULL,
			home_off_rating DOUBLE PRECISION,
			away_off_rating DOUBLE PRECISION,
			home_def_rating DOUBLE PRECISION,
			away_def_rating DOUBLE PRECISION,
			home_efg_pct DOUBLE PRECISION,
			away_efg_pct DOUBLE PRECISION,
			home_pace DOUBLE PRECISION,
			away_pace DOUBLE PRECISION,
			home_recent_win_pct DOUBLE PRECISION,
			away_recent_win_pct DOUBLE PRECISION,
			home_recent_avg_pts DOUBLE PRECISION,
			away_recent_avg_pts DOUBLE PRECISION,
			off_rating_diff DOUBLE PRECISION,
			def_rating_diff DOUBLE PRECISION,
			recent_win_diff DOUBLE PRECISION,
			pace_diff DOUBLE PRECISION,
			odds_diff INT,
			implied_home_win_pct DOUBLE PRECISION,
			implied_away_win_pct DOUBLE PRECISION,
			implied_win_diff DOUBLE PRECISION,
			model_win_prob DOUBLE PRECISION,
			prediction TEXT,
			predicted_odds INT,
			implied_prob DOUBLE PRECISION,
			value_gap DOUBLE PRECISION,
			value_flag TEXT,
			actual_winner TEXT,
			PRIMARY KEY (kind, model_version, date, home_team, away_team)
		)`,
		`CREATE TABLE IF NOT EXISTS bucket_summaries (
			date TEXT NOT NULL,
			odds_range TEXT NOT NULL,
			total_bets INT NOT NULL,
			win_rate DOUBLE PRECISION NOT NULL,
			avg_roi DOUBLE PRECISION NOT NULL,
			avg_edge DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (date, odds_range)
		)`,
		`CREATE TABLE IF NOT EXISTS accuracy_records (
			date TEXT NOT NULL,
			model_version TEXT NOT NULL,
			accuracy DOUBLE PRECISION NOT NULL,
			total_games INT NOT NULL,
			PRIMARY KEY (date, model_version)
		)`,
		`CREATE TABLE IF NOT EXISTS rolling_accuracy (
			date TEXT PRIMARY KEY,
			accuracy DOUBLE PRECISION NOT NULL,
			rolling_accuracy DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rolling_roi (
			date TEXT PRIMARY KEY,
			total_bets INT NOT NULL,
			avg_roi DOUBLE PRECISION NOT NULL,
			avg_edge DOUBLE PRECISION NOT NULL,
			heavy_fav_roi DOUBLE PRECISION,
			moderate_roi DOUBLE PRECISION,
			underdog_roi DOUBLE PRECISION
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

// --- odds ---

func (s *PostgresStore) OddsExist(date string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM odds_lines WHERE date = $1`, date).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) WriteOdds(date string, lines []models.OddsLine) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM odds_lines WHERE date = $1`, date); err != nil {
		return err
	}
	for _, l := range lines {
		_, err := tx.Exec(
			`INSERT INTO odds_lines (date, home_team, away_team, home_odds, away_odds, commence_time)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			date, l.HomeTeam, l.AwayTeam, l.HomeOdds, l.AwayOdds, l.CommenceTime.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting odds line: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ReadOdds(date string) ([]models.OddsLine, error) {
	rows, err := s.db.Query(
		`SELECT home_team, away_team, home_odds, away_odds, commence_time
		 FROM odds_lines WHERE date = $1 ORDER BY commence_time, home_team`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.OddsLine
	for rows.Next() {
		var l models.OddsLine
		var commence time.Time
		if err := rows.Scan(&l.HomeTeam, &l.AwayTeam, &l.HomeOdds, &l.AwayOdds, &commence); err != nil {
			return nil, err
		}
		l.CommenceTime = commence
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: odds for %s", ErrNotFound, date)
	}
	return lines, nil
}

// --- matchups ---

func (s *PostgresStore) writeMatchups(kind, date string, matchups []models.Matchup) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM matchups WHERE kind = $1 AND model_version = $2 AND date = $3`,
		kind, s.modelVersion, date); err != nil {
		return err
	}

	for _, m := range matchups {
		_, err := tx.Exec(
			`INSERT INTO matchups (
				kind, model_version, date, home_team, away_team, home_odds, away_odds,
				home_off_rating, away_off_rating, home_def_rating, away_def_rating,
				home_efg_pct, away_efg_pct, home_pace, away_pace,
				home_recent_win_pct, away_recent_win_pct, home_recent_avg_pts, away_recent_avg_pts,
				off_rating_diff, def_rating_diff, recent_win_diff, pace_diff, odds_diff,
				implied_home_win_pct, implied_away_win_pct, implied_win_diff,
				model_win_prob, prediction, predicted_odds, implied_prob, value_gap, value_flag,
				actual_winner
			) VALUES (
				$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,
				$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34
			)`,
			kind, s.modelVersion, m.Date, m.HomeTeam, m.AwayTeam, m.HomeOdds, m.AwayOdds,
			m.HomeOffRating, m.AwayOffRating, m.HomeDefRating, m.AwayDefRating,
			m.HomeEFGPct, m.AwayEFGPct, m.HomePace, m.AwayPace,
			m.HomeRecentWinPct, m.AwayRecentWinPct, m.HomeRecentAvgPts, m.AwayRecentAvgPts,
			m.OffRatingDiff, m.DefRatingDiff, m.RecentWinDiff, m.PaceDiff, m.OddsDiff,
			m.ImpliedHomeWinPct, m.ImpliedAwayWinPct, m.ImpliedWinDiff,
			m.ModelWinProb, string(m.Prediction), m.PredictedOdds, m.ImpliedProb,
			m.ValueGap, string(m.ValueFlag), string(m.ActualWinner),
		)
		if err != nil {
			return fmt.Errorf("inserting matchup: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) readMatchups(kind, date string) ([]models.Matchup, error) {
	rows, err := s.db.Query(
		`SELECT date, home_team, away_team, home_odds, away_odds,
			home_off_rating, away_off_rating, home_def_rating, away_def_rating,
			home_efg_pct, away_efg_pct, home_pace, away_pace,
			home_recent_win_pct, away_recent_win_pct, home_recent_avg_pts, away_recent_avg_pts,
			off_rating_diff, def_rating_diff, recent_win_diff, pace_diff, odds_diff,
			implied_home_win_pct, implied_away_win_pct, implied_win_diff,
			model_win_prob, prediction, predicted_odds, implied_prob, value_gap, value_flag,
			actual_winner
		 FROM matchups WHERE kind = $1 AND model_version = $2 AND date = $3
		 ORDER BY home_team`,
		kind, s.modelVersion, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matchups []models.Matchup
	for rows.Next() {
		var m models.Matchup
		var prediction, valueFlag, actualWinner string
		err := rows.Scan(
			&m.Date, &m.HomeTeam, &m.AwayTeam, &m.HomeOdds, &m.AwayOdds,
			&m.HomeOffRating, &m.AwayOffRating, &m.HomeDefRating, &m.AwayDefRating,
			&m.HomeEFGPct, &m.AwayEFGPct, &m.HomePace, &m.AwayPace,
			&m.HomeRecentWinPct, &m.AwayRecentWinPct, &m.HomeRecentAvgPts, &m.AwayRecentAvgPts,
			&m.OffRatingDiff, &m.DefRatingDiff, &m.RecentWinDiff, &m.PaceDiff, &m.OddsDiff,
			&m.ImpliedHomeWinPct, &m.ImpliedAwayWinPct, &m.ImpliedWinDiff,
			&m.ModelWinProb, &prediction, &m.PredictedOdds, &m.ImpliedProb, &m.ValueGap, &valueFlag,
			&actualWinner,
		)
		if err != nil {
			return nil, err
		}
		m.Prediction = models.Side(prediction)
		m.ValueFlag = models.ValueFlag(valueFlag)
		m.ActualWinner = models.Side(actualWinner)
		matchups = append(matchups, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(matchups) == 0 {
		return nil, fmt.Errorf("%w: %s for %s", ErrNotFound, kind, date)
	}
	return matchups, nil
}

func (s *PostgresStore) WriteFeatures(date string, rows []models.Matchup) error {
	return s.writeMatchups("features", date, rows)
}

func (s *PostgresStore) ReadFeatures(date string) ([]models.Matchup, error) {
	return s.readMatchups("features", date)
}

func (s *PostgresStore) PredictionsExist(date string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM matchups WHERE kind = 'predictions' AND model_version = $1 AND date = $2`,
		s.modelVersion, date).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) WritePredictions(date string, rows []models.Matchup) error {
	return s.writeMatchups("predictions", date, rows)
}

func (s *PostgresStore) ReadPredictions(date string) ([]models.Matchup, error) {
	return s.readMatchups("predictions", date)
}

// --- summaries ---

func (s *PostgresStore) SummaryExists(date string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM bucket_summaries WHERE date = $1`, date).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) WriteSummary(date string, rows []models.BucketSummary) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bucket_summaries WHERE date = $1`, date); err != nil {
		return err
	}
	for _, b := range rows {
		_, err := tx.Exec(
			`INSERT INTO bucket_summaries (date, odds_range, total_bets, win_rate, avg_roi, avg_edge)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			b.Date, b.OddsRange, b.TotalBets, b.WinRate, b.AvgROI, b.AvgEdge,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ReadSummary(date string) ([]models.BucketSummary, error) {
	rows, err := s.db.Query(
		`SELECT date, odds_range, total_bets, win_rate, avg_roi, avg_edge
		 FROM bucket_summaries WHERE date = $1 ORDER BY odds_range`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.BucketSummary
	for rows.Next() {
		var b models.BucketSummary
		if err := rows.Scan(&b.Date, &b.OddsRange, &b.TotalBets, &b.WinRate, &b.AvgROI, &b.AvgEdge); err != nil {
			return nil, err
		}
		summaries = append(summaries, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("%w: summary for %s", ErrNotFound, date)
	}
	return summaries, nil
}

// --- accuracy and rolling series ---

func (s *PostgresStore) WriteAccuracy(rec models.AccuracyRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO accuracy_records (date, model_version, accuracy, total_games)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (date, model_version)
		 DO UPDATE SET accuracy = EXCLUDED.accuracy, total_games = EXCLUDED.total_games`,
		rec.Date, rec.ModelVersion, rec.Accuracy, rec.TotalGames,
	)
	return err
}

func (s *PostgresStore) ReadAllAccuracy() ([]models.AccuracyRecord, error) {
	rows, err := s.db.Query(
		`SELECT date, model_version, accuracy, total_games
		 FROM accuracy_records WHERE model_version = $1 ORDER BY date`, s.modelVersion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AccuracyRecord
	for rows.Next() {
		var rec models.AccuracyRecord
		if err := rows.Scan(&rec.Date, &rec.ModelVersion, &rec.Accuracy, &rec.TotalGames); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) WriteRollingAccuracy(rows []models.RollingAccuracyRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM rolling_accuracy`); err != nil {
		return err
	}
	for _, r := range rows {
		_, err := tx.Exec(
			`INSERT INTO rolling_accuracy (date, accuracy, rolling_accuracy) VALUES ($1, $2, $3)`,
			r.Date, r.Accuracy, r.RollingAccuracy,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ReadRollingAccuracy() ([]models.RollingAccuracyRow, error) {
	rows, err := s.db.Query(`SELECT date, accuracy, rolling_accuracy FROM rolling_accuracy ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RollingAccuracyRow
	for rows.Next() {
		var r models.RollingAccuracyRow
		if err := rows.Scan(&r.Date, &r.Accuracy, &r.RollingAccuracy); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) WriteRollingROI(rows []models.RollingROIRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM rolling_roi`); err != nil {
		return err
	}
	for _, r := range rows {
		_, err := tx.Exec(
			`INSERT INTO rolling_roi (date, total_bets, avg_roi, avg_edge, heavy_fav_roi, moderate_roi, underdog_roi)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.Date, r.TotalBets, r.AvgROI, r.AvgEdge,
			nullableFloat(r.HeavyFavROI), nullableFloat(r.ModerateROI), nullableFloat(r.UnderdogROI),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ReadRollingROI() ([]models.RollingROIRow, error) {
	rows, err := s.db.Query(
		`SELECT date, total_bets, avg_roi, avg_edge, heavy_fav_roi, moderate_roi, underdog_roi
		 FROM rolling_roi ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RollingROIRow
	for rows.Next() {
		var r models.RollingROIRow
		var heavy, moderate, underdog sql.NullFloat64
		if err := rows.Scan(&r.Date, &r.TotalBets, &r.AvgROI, &r.AvgEdge, &heavy, &moderate, &underdog); err != nil {
			return nil, err
		}
		r.HeavyFavROI = floatPtr(heavy)
		r.ModerateROI = floatPtr(moderate)
		r.UnderdogROI = floatPtr(underdog)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
