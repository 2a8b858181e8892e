package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"ShopIntent/internal/domain/models"
	domrepo "ShopIntent/internal/domain/repository"
	"ShopIntent/internal/evaluation"
	"ShopIntent/internal/ml"
	applogger "ShopIntent/pkg/logger"
)

// TrainingConfig drives one training run.
type TrainingConfig struct {
	ModelName    string
	Schema       models.FeatureSchema
	Forest       ml.ForestParams
	CVSplits     int
	TestFraction float64
	Seed         int64
	PeriodMonths int

	// Random hyperparameter search; when disabled the configured forest
	// parameters are used as-is.
	SearchEnabled bool
	SearchTrials  int
	SearchSeed    int64
}

// TrainingPipeline fits a new model version on the recent labeled window
// and registers it as a non-default version. Promotion is never done
// here; that is exclusively the comparison pipeline's job.
type TrainingPipeline struct {
	store    domrepo.DatasetStore
	registry domrepo.ModelRegistry
	audit    domrepo.AuditPublisher
	metrics  domrepo.Metrics
	l        *applogger.Logger
	cfg      TrainingConfig
}

func NewTrainingPipeline(
	store domrepo.DatasetStore,
	registry domrepo.ModelRegistry,
	audit domrepo.AuditPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	cfg TrainingConfig,
) *TrainingPipeline {
	return &TrainingPipeline{
		store:    store,
		registry: registry,
		audit:    audit,
		metrics:  metrics,
		l:        l,
		cfg:      cfg,
	}
}

// TrainingResult reports one completed run.
type TrainingResult struct {
	Version   models.ModelVersion            `json:"version"`
	CVSummary map[string]evaluation.FoldStat `json:"cv_summary"`
	Params    ml.ForestParams                `json:"params"`
	RowsUsed  int                            `json:"rows_used"`
}

// Run trains, evaluates on the held-out fraction, and registers the new
// version. The version id encodes now, so the comparison window for this
// challenger is [now+1d, now+14d].
func (p *TrainingPipeline) Run(ctx context.Context, now time.Time) (*TrainingResult, error) {
	start := time.Now()
	window := models.TrainingWindowFor(now, p.cfg.PeriodMonths)

	rows, err := p.store.FetchLabeledWindow(ctx, window)
	if err != nil {
		p.metrics.RecordPipelineRun("training", "failed")
		return nil, fmt.Errorf("fetch training window: %w", err)
	}

	train, test := ml.TrainTestSplit(rows, p.cfg.TestFraction, p.cfg.Seed)

	params := p.cfg.Forest
	if p.cfg.SearchEnabled {
		params, err = p.searchParams(ctx, train)
		if err != nil {
			p.metrics.RecordPipelineRun("training", "failed")
			return nil, fmt.Errorf("hyperparameter search: %w", err)
		}
	}

	folds, err := p.crossValidate(ctx, train, params)
	if err != nil {
		p.metrics.RecordPipelineRun("training", "failed")
		return nil, fmt.Errorf("cross-validation: %w", err)
	}
	cvSummary := evaluation.SummarizeFolds(folds)

	art, err := ml.Fit(p.cfg.Schema, train, params)
	if err != nil {
		p.metrics.RecordPipelineRun("training", "failed")
		return nil, fmt.Errorf("final fit: %w", err)
	}

	// The held-out bundle is informational: it travels with the version
	// but the later promotion decision recomputes fresh metrics on a
	// temporal window.
	pred := ml.NewPredictor(art)
	testLabels, err := pred.PredictLabel(test)
	if err != nil {
		p.metrics.RecordPipelineRun("training", "failed")
		return nil, fmt.Errorf("score held-out set: %w", err)
	}
	testProba, err := pred.PredictProba(test)
	if err != nil {
		p.metrics.RecordPipelineRun("training", "failed")
		return nil, fmt.Errorf("score held-out set: %w", err)
	}
	bundle, err := evaluation.Calc(ml.Labels(test), testLabels, testProba)
	if err != nil {
		p.metrics.RecordPipelineRun("training", "failed")
		return nil, fmt.Errorf("held-out metrics: %w", err)
	}

	blob, err := art.Marshal()
	if err != nil {
		p.metrics.RecordPipelineRun("training", "failed")
		return nil, err
	}

	version := models.ModelVersion{
		Name:      p.cfg.ModelName,
		VersionID: models.NewVersionID(now),
		CreatedAt: now.UTC().Truncate(time.Second),
		Metrics:   bundle.Map(),
		Artifact:  blob,
	}
	if err := p.registry.LogVersion(ctx, version); err != nil {
		p.metrics.RecordPipelineRun("training", "failed")
		return nil, fmt.Errorf("register version: %w", err)
	}

	if err := p.audit.PublishTraining(ctx, version); err != nil && p.l != nil {
		p.l.Warn("audit publish failed", applogger.Error(err))
	}

	p.metrics.RecordPipelineRun("training", "success")
	p.metrics.RecordLatency("training", time.Since(start).Seconds())
	if p.l != nil {
		p.l.Info("training finished",
			applogger.String("model", p.cfg.ModelName),
			applogger.String("version", version.VersionID),
			applogger.Int("rows", len(rows)),
			applogger.Float64("holdout_pr_auc", bundle.PRAUC),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}

	return &TrainingResult{
		Version:   version,
		CVSummary: cvSummary,
		Params:    params,
		RowsUsed:  len(rows),
	}, nil
}

// crossValidate computes the per-fold metric bundles for params on rows.
func (p *TrainingPipeline) crossValidate(ctx context.Context, rows []models.SessionRow, params ml.ForestParams) ([]models.MetricBundle, error) {
	folds := ml.StratifiedKFold(ml.Labels(rows), p.cfg.CVSplits, p.cfg.Seed)
	bundles := make([]models.MetricBundle, 0, len(folds))
	for fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		trainPart, val := ml.SplitByFold(rows, folds, fold)
		art, err := ml.Fit(p.cfg.Schema, trainPart, params)
		if err != nil {
			return nil, fmt.Errorf("fold %d fit: %w", fold, err)
		}
		pred := ml.NewPredictor(art)
		labels, err := pred.PredictLabel(val)
		if err != nil {
			return nil, fmt.Errorf("fold %d score: %w", fold, err)
		}
		proba, err := pred.PredictProba(val)
		if err != nil {
			return nil, fmt.Errorf("fold %d score: %w", fold, err)
		}
		b, err := evaluation.Calc(ml.Labels(val), labels, proba)
		if err != nil {
			return nil, fmt.Errorf("fold %d metrics: %w", fold, err)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// searchParams draws random forest configurations and keeps the one with
// the best cross-validated PR-AUC. Deterministic for a fixed search seed.
func (p *TrainingPipeline) searchParams(ctx context.Context, rows []models.SessionRow) (ml.ForestParams, error) {
	rng := rand.New(rand.NewSource(p.cfg.SearchSeed))
	best := p.cfg.Forest
	bestScore := -1.0

	trials := p.cfg.SearchTrials
	if trials <= 0 {
		trials = 10
	}
	for trial := 0; trial < trials; trial++ {
		candidate := p.cfg.Forest
		candidate.Trees = 50 + rng.Intn(251)  // 50..300
		candidate.MaxDepth = 4 + rng.Intn(21) // 4..24
		candidate.MinLeaf = 1 + rng.Intn(8)   // 1..8

		folds, err := p.crossValidate(ctx, rows, candidate)
		if err != nil {
			return best, fmt.Errorf("trial %d: %w", trial, err)
		}
		score := evaluation.SummarizeFolds(folds)[models.MetricPRAUC].Mean
		if score > bestScore {
			bestScore = score
			best = candidate
		}
		if p.l != nil {
			p.l.Debug("search trial",
				applogger.Int("trial", trial),
				applogger.Int("trees", candidate.Trees),
				applogger.Int("max_depth", candidate.MaxDepth),
				applogger.Int("min_leaf", candidate.MinLeaf),
				applogger.Float64("cv_pr_auc", score),
			)
		}
	}
	return best, nil
}
