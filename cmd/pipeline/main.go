// Command pipeline runs a single pipeline task and exits. Intended for
// external cron or one-off operational runs; the long-lived server in
// cmd/app schedules the same tasks internally.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"ShopIntent/internal/di"
	"ShopIntent/pkg/config"
	"ShopIntent/pkg/util"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	task := flag.String("task", "", "task to run: ingest, rebuild, append, train, predict, compare")
	date := flag.String("date", "", "session date (YYYY-MM-DD), defaults to today")
	timeout := flag.Duration("timeout", 30*time.Minute, "task timeout")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, *task, *date); err != nil {
		log.Printf("task %s failed: %v", *task, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, task, date string) error {
	day := util.ParseDayDefault(date, util.TruncateDay(time.Now()))

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	ch, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		return err
	}
	defer ch.Close()

	m := di.ProvideMetrics()
	store, err := di.ProvideDatasetStore(ch, logger)
	if err != nil {
		return err
	}
	registry, err := di.ProvideModelRegistry(ch, logger)
	if err != nil {
		return err
	}
	audit, err := di.ProvideAuditPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer audit.Close()

	dataset := di.ProvideDatasetPipeline(store, di.ProvideHTTPClient(cfg), m, logger, cfg)

	switch task {
	case "ingest":
		_, err = dataset.Ingest(ctx)
	case "rebuild":
		err = dataset.Rebuild(ctx, day)
	case "append":
		_, err = dataset.AppendDay(ctx, day)
	case "train":
		training := di.ProvideTrainingPipeline(store, registry, audit, m, logger, cfg)
		_, err = training.Run(ctx, time.Now().UTC())
	case "predict":
		prediction := di.ProvidePredictionPipeline(store, registry, m, logger, cfg)
		_, err = prediction.Run(ctx, day)
	case "compare":
		comparison := di.ProvideComparisonPipeline(store, registry, audit, m, logger, cfg)
		_, err = comparison.Run(ctx)
	default:
		err = fmt.Errorf("unknown task %q", task)
	}
	return err
}
