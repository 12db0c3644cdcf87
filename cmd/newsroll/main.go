package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/JaimeStill/newsroll/internal/articles"
	"github.com/JaimeStill/newsroll/internal/config"
	"github.com/JaimeStill/newsroll/internal/model"
	"github.com/JaimeStill/newsroll/internal/pipeline"
	"github.com/JaimeStill/newsroll/internal/reference"
	"github.com/JaimeStill/newsroll/internal/snapshots"
	"github.com/JaimeStill/newsroll/pkg/database"
	"github.com/JaimeStill/newsroll/pkg/lifecycle"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var (
		force    = flag.Bool("force", false, "Regenerate all rollups regardless of freshness")
		schedule = flag.String("schedule", "", "Cron expression for scheduled runs (empty runs once and exits)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	logger.Info(
		"newsroll starting",
		"version", cfg.Version,
		"env", cfg.Env(),
		"provider", cfg.Model.Provider,
		"model", cfg.Model.Name,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, db, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		log.Fatal("startup failed:", err)
	}

	if *schedule == "" {
		defer db.Connection().Close()
		runOnce(ctx, rt, *force, logger)
		return
	}

	lc := lifecycle.New()
	if err := db.Start(lc); err != nil {
		log.Fatal("database start failed:", err)
	}
	lc.WaitForStartup()
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(*schedule, func() {
		runOnce(lc.Context(), rt, *force, logger)
	}); err != nil {
		log.Fatal("invalid schedule:", err)
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-scheduler.Stop().Done()
	})

	scheduler.Start()
	logger.Info("scheduler started", "schedule", *schedule)

	<-ctx.Done()
	logger.Info("shutting down")
	if err := lc.Shutdown(shutdownTimeout); err != nil {
		logger.Error("shutdown incomplete", "error", err)
		os.Exit(1)
	}
	logger.Info("newsroll stopped")
}

func runOnce(ctx context.Context, rt *pipeline.Runtime, force bool, logger *slog.Logger) {
	start := time.Now()
	stats, err := pipeline.Run(ctx, rt, force)
	if err != nil {
		logger.Error("pipeline run failed", "error", err, "elapsed", time.Since(start))
		return
	}
	logger.Info("pipeline run finished",
		"enrichments", stats.NewEnrichments,
		"corrections", stats.RefinedSentiments,
		"rollups", stats.Rollups,
		"failures", stats.Failures,
		"elapsed", time.Since(start))
}

func buildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Runtime, database.System, error) {
	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(ctx); err != nil {
		return nil, nil, err
	}

	provider, err := model.New(ctx, &cfg.Model)
	if err != nil {
		return nil, nil, err
	}

	universe, err := reference.LoadUniverse(cfg.Reference.TickersPath)
	if err != nil {
		return nil, nil, err
	}
	funds, err := reference.LoadFunds(cfg.Reference.FundsPath)
	if err != nil {
		return nil, nil, err
	}

	rt := &pipeline.Runtime{
		Articles:  articles.New(db.Connection(), logger, cfg.Pipeline.MinConfidence),
		Snapshots: snapshots.New(db.Connection(), logger),
		Provider:  provider,
		Universe:  universe,
		Holdings:  reference.BuildIndex(funds, cfg.Pipeline.MaxHoldings),
		Config:    cfg.Pipeline,
		Model:     cfg.Model,
		Logger:    logger,
	}
	return rt, db, nil
}
