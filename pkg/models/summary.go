package models

// BucketSummary is one row of a per-date evaluation summary: aggregate
// performance of the bets whose predicted odds fell in one odds range.
type BucketSummary struct {
	Date      string  `json:"date"`
	OddsRange string  `json:"odds_range"`
	TotalBets int     `json:"total_bets"`
	WinRate   float64 `json:"win_rate"`
	AvgROI    float64 `json:"avg_roi"`
	AvgEdge   float64 `json:"avg_edge"`
}

// AccuracyRecord is the per-date evaluation result the rolling series is
// built from.
type AccuracyRecord struct {
	Date         string  `json:"date"`
	ModelVersion string  `json:"model"`
	Accuracy     float64 `json:"accuracy"`
	TotalGames   int     `json:"total_games"`
}

// RollingAccuracyRow is one point of the rolling accuracy series: the daily
// accuracy plus its trailing simple moving average.
type RollingAccuracyRow struct {
	Date            string  `json:"date"`
	Accuracy        float64 `json:"accuracy"`
	RollingAccuracy float64 `json:"rolling_accuracy"`
}

// RollingROIRow is one point of the rolling ROI series, with per-bucket ROI
// broken out. Bucket fields are nil when no bet fell in that range that day.
type RollingROIRow struct {
	Date        string   `json:"date"`
	TotalBets   int      `json:"total_bets"`
	AvgROI      float64  `json:"avg_roi"`
	AvgEdge     float64  `json:"avg_edge"`
	HeavyFavROI *float64 `json:"heavy_fav_roi"`
	ModerateROI *float64 `json:"moderate_roi"`
	UnderdogROI *float64 `json:"underdog_roi"`
}
