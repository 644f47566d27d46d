package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkaplan/fastbreak/internal/config"
	"github.com/mkaplan/fastbreak/internal/evaluate"
	"github.com/mkaplan/fastbreak/internal/features"
	"github.com/mkaplan/fastbreak/internal/ingest"
	"github.com/mkaplan/fastbreak/internal/logging"
	"github.com/mkaplan/fastbreak/internal/model"
	"github.com/mkaplan/fastbreak/internal/notify"
	"github.com/mkaplan/fastbreak/internal/pipeline"
	"github.com/mkaplan/fastbreak/internal/predict"
	"github.com/mkaplan/fastbreak/internal/providers/nbastats"
	"github.com/mkaplan/fastbreak/internal/providers/oddsapi"
	"github.com/mkaplan/fastbreak/internal/reconcile"
	"github.com/mkaplan/fastbreak/internal/stats"
	"github.com/mkaplan/fastbreak/internal/store"
)

// The pipeline always exits 0: stage failures are logged, never propagated
// as a process exit code. Only a broken configuration aborts startup.
func main() {
	fmt.Println("=== Fastbreak Daily Pipeline ===")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	st, err := store.New(cfg.Storage.Backend, store.Options{ModelVersion: cfg.Model.Version}, store.CSVDirs{
		DataDir:        cfg.Paths.DataDir,
		PredictionsDir: cfg.Paths.PredictionsDir,
		PerformanceDir: cfg.Paths.PerformanceDir,
	}, cfg.Storage.PostgresDSN)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}

	seasonTable, err := stats.LoadSeasonTable(cfg.Stats.SeasonStatsPath)
	if err != nil {
		log.Fatalf("loading season stats: %v", err)
	}

	clf, err := model.Load(cfg.Model.ArtifactPath)
	if err != nil {
		log.Fatalf("loading model: %v", err)
	}

	oddsClient := oddsapi.New(
		cfg.OddsAPI.BaseURL, cfg.OddsAPI.APIKey,
		cfg.OddsAPI.Sport, cfg.OddsAPI.Region, cfg.OddsAPI.Market,
		cfg.OddsAPI.Timeout,
	)
	statsClient := nbastats.New(cfg.Stats.GameLogBaseURL, cfg.Stats.Timeout)

	var formCache *redis.Client
	if cfg.Stats.CacheURL != "" {
		opts, err := redis.ParseURL(cfg.Stats.CacheURL)
		if err != nil {
			log.Fatalf("parsing redis URL: %v", err)
		}
		formCache = redis.NewClient(opts)
		if err := formCache.Ping(context.Background()).Err(); err != nil {
			// cache is an optimization: run without it instead of dying
			log.WithError(err).Warn("recent-form cache unreachable, continuing without it")
			formCache = nil
		}
	}

	form := stats.NewCachedForm(
		stats.NewGameLogForm(statsClient, cfg.Stats.RecentWindow),
		formCache, cfg.Stats.CacheTTL,
	)
	lookup := stats.NewLookup(
		seasonTable, form,
		stats.FallbackPolicy(cfg.Stats.Fallback),
		cfg.Stats.FallbackWinPct, cfg.Stats.FallbackAvgPts,
		log,
	)

	p := pipeline.New(
		ingest.New(oddsClient, st, loc, log),
		features.New(lookup, st, log),
		predict.New(clf, st, cfg.Predict.ValueThreshold, cfg.Predict.CautionThreshold, log),
		reconcile.New(oddsClient, st, loc, cfg.OddsAPI.ScoresDaysFrom, log),
		evaluate.New(st, cfg.Evaluate.HeavyFavMax, cfg.Evaluate.ModerateMax, cfg.Evaluate.RollingWindow, cfg.Model.Version, log),
		notify.NewDiscordNotifier(cfg.Notify.PicksWebhookURL, cfg.Notify.ResultsWebhookURL, cfg.Notify.Timeout),
		st, loc, log,
	)

	p.Run(context.Background(), time.Now())
}
