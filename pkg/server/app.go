// Package server wires the application lifecycle: scheduler, job workers,
// and the HTTP API, with graceful shutdown of every client.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "ShopIntent/internal/domain/repository"
	"ShopIntent/internal/jobs"
	"ShopIntent/internal/scheduler"
	"ShopIntent/internal/usecase"
	pkgch "ShopIntent/pkg/clickhouse"
	"ShopIntent/pkg/config"
	xhttp "ShopIntent/pkg/http"
	applogger "ShopIntent/pkg/logger"
	"ShopIntent/pkg/util"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg   *config.Config
	l     *applogger.Logger
	ch    *pkgch.Client
	redis *redis.Client
	audit domrepo.AuditPublisher

	httpServer *xhttp.Server
	sched      *scheduler.Scheduler
	runner     *jobs.Runner

	dataset    *usecase.DatasetPipeline
	training   *usecase.TrainingPipeline
	prediction *usecase.PredictionPipeline
	comparison *usecase.ComparisonPipeline
}

// New assembles the app from its DI-built pieces. redisClient may be nil
// when Redis is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	ch *pkgch.Client,
	redisClient *redis.Client,
	audit domrepo.AuditPublisher,
	handler xhttp.Handler,
	runner *jobs.Runner,
	dataset *usecase.DatasetPipeline,
	training *usecase.TrainingPipeline,
	prediction *usecase.PredictionPipeline,
	comparison *usecase.ComparisonPipeline,
) *App {
	httpServer := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
	return &App{
		cfg:        cfg,
		l:          l,
		ch:         ch,
		redis:      redisClient,
		audit:      audit,
		httpServer: httpServer,
		runner:     runner,
		dataset:    dataset,
		training:   training,
		prediction: prediction,
		comparison: comparison,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.cfg.Scheduler.Enabled {
		sched, err := scheduler.New(a.l)
		if err != nil {
			return err
		}
		a.sched = sched
		if err := a.registerCrons(); err != nil {
			return err
		}
		a.sched.Start()
	}

	a.runner.Start(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("application started",
		applogger.String("environment", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("model", a.cfg.Model.Name),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// registerCrons binds the three recurring runs: the daily ETL+prediction
// pass, the monthly retraining, and the comparison that follows it.
func (a *App) registerCrons() error {
	if err := a.sched.AddCron(a.cfg.Scheduler.PredictionCron, "daily_prediction", func(ctx context.Context) error {
		day := util.TruncateDay(time.Now())
		if _, err := a.dataset.AppendDay(ctx, day); err != nil {
			return err
		}
		_, err := a.prediction.Run(ctx, day)
		return err
	}); err != nil {
		return err
	}

	if err := a.sched.AddCron(a.cfg.Scheduler.TrainingCron, "monthly_training", func(ctx context.Context) error {
		now := time.Now().UTC()
		if err := a.dataset.Rebuild(ctx, util.TruncateDay(now)); err != nil {
			return err
		}
		_, err := a.training.Run(ctx, now)
		return err
	}); err != nil {
		return err
	}

	return a.sched.AddCron(a.cfg.Scheduler.ComparisonCron, "offline_comparison", func(ctx context.Context) error {
		_, err := a.comparison.Run(ctx)
		return err
	})
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.sched != nil {
		if err := a.sched.Stop(); err != nil {
			a.l.Warn("scheduler stop error", applogger.Error(err))
		}
	}

	a.runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.l.Warn("audit publisher close error", applogger.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
