package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mkaplan/fastbreak/internal/config"
	"github.com/mkaplan/fastbreak/internal/handlers"
	"github.com/mkaplan/fastbreak/internal/logging"
	"github.com/mkaplan/fastbreak/internal/store"
)

func main() {
	fmt.Println("=== Fastbreak Dashboard API ===")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level)

	st, err := store.New(cfg.Storage.Backend, store.Options{ModelVersion: cfg.Model.Version}, store.CSVDirs{
		DataDir:        cfg.Paths.DataDir,
		PredictionsDir: cfg.Paths.PredictionsDir,
		PerformanceDir: cfg.Paths.PerformanceDir,
	}, cfg.Storage.PostgresDSN)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}

	handler := handlers.NewHandler(st)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handler.HealthCheck)
	r.Get("/api/predictions/{date}", handler.GetPredictions)
	r.Get("/api/summary/{date}", handler.GetSummary)
	r.Get("/api/rolling/accuracy", handler.GetRollingAccuracy)
	r.Get("/api/rolling/roi", handler.GetRollingROI)

	log.Infof("dashboard API listening on %s", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
