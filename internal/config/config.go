package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all pipeline configuration, loaded from config/config.yaml
// with secrets overridden from the environment.
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	OddsAPI  OddsAPIConfig  `mapstructure:"odds_api"`
	Stats    StatsConfig    `mapstructure:"stats"`
	Model    ModelConfig    `mapstructure:"model"`
	Predict  PredictConfig  `mapstructure:"predict"`
	Evaluate EvaluateConfig `mapstructure:"evaluate"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`

	// Timezone is the operating timezone games are assigned to dates in.
	Timezone string `mapstructure:"timezone"`
}

// PathsConfig holds the data directories the CSV store writes under.
type PathsConfig struct {
	DataDir        string `mapstructure:"data_dir"`
	PredictionsDir string `mapstructure:"predictions_dir"`
	PerformanceDir string `mapstructure:"performance_dir"`
}

// OddsAPIConfig holds The Odds API settings.
type OddsAPIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Sport          string        `mapstructure:"sport"`
	Region         string        `mapstructure:"region"`
	Market         string        `mapstructure:"market"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ScoresDaysFrom int           `mapstructure:"scores_days_from"`
}

// StatsConfig holds the stats-source settings and the missing-data policy.
type StatsConfig struct {
	SeasonStatsPath string        `mapstructure:"season_stats_path"`
	GameLogBaseURL  string        `mapstructure:"game_log_base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RecentWindow    int           `mapstructure:"recent_window"`

	// Fallback selects the recent-form missing-data policy: "neutral"
	// substitutes FallbackWinPct/FallbackAvgPts on lookup failure,
	// "strict" surfaces the error instead.
	Fallback       string  `mapstructure:"fallback"`
	FallbackWinPct float64 `mapstructure:"fallback_win_pct"`
	FallbackAvgPts float64 `mapstructure:"fallback_avg_pts"`

	// Optional Redis cache for recent-form lookups. Empty URL disables it.
	CacheURL string        `mapstructure:"cache_url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// ModelConfig identifies the pretrained classifier artifact.
type ModelConfig struct {
	ArtifactPath string `mapstructure:"artifact_path"`
	Version      string `mapstructure:"version"`
}

// PredictConfig holds the value-flag thresholds.
type PredictConfig struct {
	ValueThreshold   float64 `mapstructure:"value_threshold"`
	CautionThreshold float64 `mapstructure:"caution_threshold"`
}

// EvaluateConfig holds the odds-bucket bounds (decimal-odds space) and the
// rolling-series window.
type EvaluateConfig struct {
	HeavyFavMax   float64 `mapstructure:"heavy_fav_max"`
	ModerateMax   float64 `mapstructure:"moderate_max"`
	RollingWindow int     `mapstructure:"rolling_window"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend     string `mapstructure:"backend"` // "csv" or "postgres"
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// NotifyConfig holds the Discord webhook targets. Empty URLs disable the
// corresponding message.
type NotifyConfig struct {
	PicksWebhookURL   string        `mapstructure:"picks_webhook_url"`
	ResultsWebhookURL string        `mapstructure:"results_webhook_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds the dashboard API settings.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads config/config.yaml, applies defaults, and overrides secrets from
// the environment (a .env file is honored if present).
func Load() (*Config, error) {
	// .env is optional; environment already set wins either way
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Defaults alone are a workable configuration; only a malformed
		// file is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timezone", "America/Chicago")

	v.SetDefault("paths.data_dir", "data")
	v.SetDefault("paths.predictions_dir", "predictions")
	v.SetDefault("paths.performance_dir", "performance")

	v.SetDefault("odds_api.base_url", "https://api.the-odds-api.com/v4")
	v.SetDefault("odds_api.sport", "basketball_nba")
	v.SetDefault("odds_api.region", "us")
	v.SetDefault("odds_api.market", "h2h")
	v.SetDefault("odds_api.timeout", 30*time.Second)
	v.SetDefault("odds_api.scores_days_from", 3)

	v.SetDefault("stats.season_stats_path", "data/team_advanced_stats.csv")
	v.SetDefault("stats.game_log_base_url", "https://stats.nba.com/stats")
	v.SetDefault("stats.timeout", 15*time.Second)
	v.SetDefault("stats.recent_window", 5)
	v.SetDefault("stats.fallback", "neutral")
	v.SetDefault("stats.fallback_win_pct", 0.5)
	v.SetDefault("stats.fallback_avg_pts", 110.0)
	v.SetDefault("stats.cache_ttl", 6*time.Hour)

	v.SetDefault("model.artifact_path", "models/nba_model_v4_2.json")
	v.SetDefault("model.version", "v4_2")

	v.SetDefault("predict.value_threshold", 0.03)
	v.SetDefault("predict.caution_threshold", -0.03)

	v.SetDefault("evaluate.heavy_fav_max", 1.83)
	v.SetDefault("evaluate.moderate_max", 2.5)
	v.SetDefault("evaluate.rolling_window", 5)

	v.SetDefault("storage.backend", "csv")

	v.SetDefault("notify.timeout", 10*time.Second)

	v.SetDefault("server.addr", ":8090")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
}

// overrideFromEnv applies environment overrides for secrets that must not
// live in the YAML file.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("ODDS_API_KEY"); v != "" {
		cfg.OddsAPI.APIKey = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Stats.CacheURL = v
	}
	if v := os.Getenv("DISCORD_PICKS_WEBHOOK_URL"); v != "" {
		cfg.Notify.PicksWebhookURL = v
	}
	if v := os.Getenv("DISCORD_RESULTS_WEBHOOK_URL"); v != "" {
		cfg.Notify.ResultsWebhookURL = v
	}
}

// Location resolves the configured operating timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
