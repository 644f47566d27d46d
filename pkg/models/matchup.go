package models

import "time"

// Side identifies which side of a matchup a prediction or result refers to.
type Side string

const (
	SideHome    Side = "HOME"
	SideAway    Side = "AWAY"
	SideUnknown Side = "UNKNOWN"
)

// ValueFlag classifies the gap between the model's probability and the
// market-implied probability for the predicted side.
type ValueFlag string

const (
	FlagValue   ValueFlag = "VALUE"
	FlagCaution ValueFlag = "CAUTION"
	FlagNeutral ValueFlag = "NEUTRAL"
)

// PredictionFromProb derives the pick from the model's home-win probability.
// Ties go to the home side.
func PredictionFromProb(homeWinProb float64) Side {
	if homeWinProb >= 0.5 {
		return SideHome
	}
	return SideAway
}

// FlagFromGap derives the value flag from the value gap against fixed
// thresholds. Exactly one flag holds for any gap.
func FlagFromGap(gap, valueThreshold, cautionThreshold float64) ValueFlag {
	switch {
	case gap > valueThreshold:
		return FlagValue
	case gap < cautionThreshold:
		return FlagCaution
	default:
		return FlagNeutral
	}
}

// OddsLine is one row of the dated odds file: a scheduled matchup with the
// market's American-odds quote for each side.
type OddsLine struct {
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	HomeOdds     int       `json:"home_odds"`
	AwayOdds     int       `json:"away_odds"`
	CommenceTime time.Time `json:"commence_time"`
}

// Matchup is the full per-game record the pipeline builds up in place:
// the feature builder fills the stats and differential fields, the predictor
// fills the prediction fields, and the reconciler sets ActualWinner exactly
// once after the game completes.
type Matchup struct {
	Date     string `json:"date"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`

	HomeOdds int `json:"home_odds"`
	AwayOdds int `json:"away_odds"`

	HomeOffRating float64 `json:"home_off_rating"`
	AwayOffRating float64 `json:"away_off_rating"`
	HomeDefRating float64 `json:"home_def_rating"`
	AwayDefRating float64 `json:"away_def_rating"`
	HomeEFGPct    float64 `json:"home_efg_pct"`
	AwayEFGPct    float64 `json:"away_efg_pct"`
	HomePace      float64 `json:"home_pace"`
	AwayPace      float64 `json:"away_pace"`

	HomeRecentWinPct float64 `json:"home_recent_win_pct"`
	AwayRecentWinPct float64 `json:"away_recent_win_pct"`
	HomeRecentAvgPts float64 `json:"home_recent_avg_pts"`
	AwayRecentAvgPts float64 `json:"away_recent_avg_pts"`

	OffRatingDiff float64 `json:"off_rating_diff"`
	DefRatingDiff float64 `json:"def_rating_diff"`
	RecentWinDiff float64 `json:"recent_win_diff"`
	PaceDiff      float64 `json:"pace_diff"`
	OddsDiff      int     `json:"odds_diff"`

	ImpliedHomeWinPct float64 `json:"implied_home_win_pct"`
	ImpliedAwayWinPct float64 `json:"implied_away_win_pct"`
	ImpliedWinDiff    float64 `json:"implied_win_diff"`

	ModelWinProb  float64   `json:"model_win_prob"`
	Prediction    Side      `json:"prediction"`
	PredictedOdds int       `json:"predicted_odds"`
	ImpliedProb   float64   `json:"implied_prob"`
	ValueGap      float64   `json:"value_gap"`
	ValueFlag     ValueFlag `json:"value_flag"`

	// Empty until the reconciler has matched the game to a final score.
	ActualWinner Side `json:"actual_winner"`
}

// Predicted reports whether the predictor has filled in this record.
func (m *Matchup) Predicted() bool {
	return m.ValueFlag != ""
}

// Reconciled reports whether an outcome has been recorded for this record.
func (m *Matchup) Reconciled() bool {
	return m.ActualWinner != ""
}

// FeatureNames lists the model's input features in the order the model
// artifact was trained with.
var FeatureNames = []string{
	"off_rating_diff", "def_rating_diff", "recent_win_diff", "pace_diff",
	"home_recent_avg_pts", "away_recent_avg_pts",
	"home_efg_pct", "away_efg_pct",
	"home_odds", "away_odds", "odds_diff",
	"implied_home_win_pct", "implied_away_win_pct", "implied_win_diff",
}

// Features returns the model input vector for this matchup keyed by feature
// name.
func (m *Matchup) Features() map[string]float64 {
	return map[string]float64{
		"off_rating_diff":      m.OffRatingDiff,
		"def_rating_diff":      m.DefRatingDiff,
		"recent_win_diff":      m.RecentWinDiff,
		"pace_diff":            m.PaceDiff,
		"home_recent_avg_pts":  m.HomeRecentAvgPts,
		"away_recent_avg_pts":  m.AwayRecentAvgPts,
		"home_efg_pct":         m.HomeEFGPct,
		"away_efg_pct":         m.AwayEFGPct,
		"home_odds":            float64(m.HomeOdds),
		"away_odds":            float64(m.AwayOdds),
		"odds_diff":            float64(m.OddsDiff),
		"implied_home_win_pct": m.ImpliedHomeWinPct,
		"implied_away_win_pct": m.ImpliedAwayWinPct,
		"implied_win_diff":     m.ImpliedWinDiff,
	}
}
