package usecase

import (
	"context"
	"fmt"
	"time"

	"ShopIntent/internal/domain/models"
	domrepo "ShopIntent/internal/domain/repository"
	"ShopIntent/internal/ml"
	applogger "ShopIntent/pkg/logger"
)

// PredictionPipeline scores one session date with the serving (default)
// model version and persists the scores. Re-running a date replaces its
// scores instead of appending.
type PredictionPipeline struct {
	store    domrepo.DatasetStore
	registry domrepo.ModelRegistry
	metrics  domrepo.Metrics
	l        *applogger.Logger

	modelName string
}

func NewPredictionPipeline(
	store domrepo.DatasetStore,
	registry domrepo.ModelRegistry,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	modelName string,
) *PredictionPipeline {
	return &PredictionPipeline{
		store:     store,
		registry:  registry,
		metrics:   metrics,
		l:         l,
		modelName: modelName,
	}
}

// Run scores every session of day and returns the number of rows written.
func (p *PredictionPipeline) Run(ctx context.Context, day time.Time) (int, error) {
	start := time.Now()

	version, err := p.registry.GetDefault(ctx, p.modelName)
	if err != nil {
		p.metrics.RecordPipelineRun("prediction", "failed")
		return 0, fmt.Errorf("load serving version: %w", err)
	}

	rows, err := p.store.FetchDay(ctx, day)
	if err != nil {
		p.metrics.RecordPipelineRun("prediction", "failed")
		return 0, fmt.Errorf("fetch day: %w", err)
	}

	pred, err := ml.PredictorForVersion(version)
	if err != nil {
		p.metrics.RecordPipelineRun("prediction", "failed")
		return 0, err
	}
	proba, err := pred.PredictProba(rows)
	if err != nil {
		p.metrics.RecordPipelineRun("prediction", "failed")
		return 0, fmt.Errorf("score day: %w", err)
	}

	scores := make([]models.ScoreRecord, len(rows))
	for i := range rows {
		scores[i] = models.ScoreRecord{
			UID:          rows[i].UID,
			SessionDate:  rows[i].SessionDate,
			ModelName:    p.modelName,
			ModelVersion: version.VersionID,
			Score:        proba[i],
		}
	}
	if err := p.store.WriteScores(ctx, day, scores); err != nil {
		p.metrics.RecordPipelineRun("prediction", "failed")
		return 0, fmt.Errorf("persist scores: %w", err)
	}

	p.metrics.RecordPipelineRun("prediction", "success")
	p.metrics.RecordRowsScored(p.modelName, len(scores))
	p.metrics.RecordLatency("prediction", time.Since(start).Seconds())
	if p.l != nil {
		p.l.Info("prediction finished",
			applogger.String("model", p.modelName),
			applogger.String("version", version.VersionID),
			applogger.Time("session_date", day),
			applogger.Int("rows", len(scores)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return len(scores), nil
}
