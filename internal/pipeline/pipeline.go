// Package pipeline sequences the daily run: ingest → features → predict →
// reconcile → evaluate → rolling update → notify. Stages run strictly in
// order; each is fail-soft, so one stage's failure is logged and the rest
// still attempt to run.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mkaplan/fastbreak/internal/evaluate"
	"github.com/mkaplan/fastbreak/internal/features"
	"github.com/mkaplan/fastbreak/internal/ingest"
	"github.com/mkaplan/fastbreak/internal/notify"
	"github.com/mkaplan/fastbreak/internal/predict"
	"github.com/mkaplan/fastbreak/internal/reconcile"
	"github.com/mkaplan/fastbreak/internal/store"
)

// Pipeline wires the stages together for one daily run.
type Pipeline struct {
	ingestor   *ingest.Ingestor
	builder    *features.Builder
	predictor  *predict.Predictor
	reconciler *reconcile.Reconciler
	evaluator  *evaluate.Evaluator
	notifier   *notify.DiscordNotifier
	store      store.Store
	loc        *time.Location
	log        *logrus.Logger
}

// New creates a pipeline over already-constructed stages.
func New(
	ingestor *ingest.Ingestor,
	builder *features.Builder,
	predictor *predict.Predictor,
	reconciler *reconcile.Reconciler,
	evaluator *evaluate.Evaluator,
	notifier *notify.DiscordNotifier,
	st store.Store,
	loc *time.Location,
	log *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		ingestor:   ingestor,
		builder:    builder,
		predictor:  predictor,
		reconciler: reconciler,
		evaluator:  evaluator,
		notifier:   notifier,
		store:      st,
		loc:        loc,
		log:        log,
	}
}

// Run executes one full daily cycle for "now": today's games are predicted
// and yesterday's are settled and evaluated. Run never returns an error;
// per-stage failures are logged and the run continues, so the process
// always exits 0.
func (p *Pipeline) Run(ctx context.Context, now time.Time) {
	today := now.In(p.loc).Format("2006-01-02")
	yesterday := now.In(p.loc).AddDate(0, 0, -1).Format("2006-01-02")

	log := p.log.WithFields(logrus.Fields{
		"run_id":    uuid.NewString(),
		"today":     today,
		"yesterday": yesterday,
	})
	log.Info("starting daily pipeline")

	p.runStage(ctx, log, "ingest", func() error {
		return p.ingestor.Run(ctx, today)
	})
	p.runStage(ctx, log, "features", func() error {
		return p.builder.Run(ctx, today)
	})
	p.runStage(ctx, log, "predict", func() error {
		return p.predictor.Run(ctx, today)
	})
	p.runStage(ctx, log, "reconcile", func() error {
		return p.reconciler.Run(ctx, yesterday)
	})
	p.runStage(ctx, log, "evaluate", func() error {
		return p.evaluator.EvaluateDate(yesterday)
	})
	p.runStage(ctx, log, "rolling", func() error {
		return p.evaluator.UpdateRolling()
	})
	p.runStage(ctx, log, "notify-picks", func() error {
		rows, err := p.store.ReadPredictions(today)
		if err != nil {
			return err
		}
		return p.notifier.SendPicks(ctx, today, rows)
	})
	p.runStage(ctx, log, "notify-results", func() error {
		rows, err := p.store.ReadPredictions(yesterday)
		if err != nil {
			return err
		}
		return p.notifier.SendResults(ctx, yesterday, rows)
	})

	log.Info("daily pipeline finished")
}

// runStage executes one stage fail-soft. Missing upstream artifacts are a
// normal condition (e.g. no games yesterday) and log quieter than real
// failures.
func (p *Pipeline) runStage(ctx context.Context, log *logrus.Entry, name string, fn func() error) {
	if ctx.Err() != nil {
		log.WithField("stage", name).Warn("run cancelled, skipping stage")
		return
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start).Round(time.Millisecond)

	stageLog := log.WithFields(logrus.Fields{"stage": name, "elapsed": elapsed.String()})
	switch {
	case err == nil:
		stageLog.Info("stage complete")
	case errors.Is(err, store.ErrNotFound):
		stageLog.WithError(err).Warn("stage input missing, skipping")
	default:
		stageLog.WithError(err).Error("stage failed")
	}
}
