package usecase

import (
	"context"
	"fmt"
	"time"

	"ShopIntent/internal/domain/models"
	domrepo "ShopIntent/internal/domain/repository"
	"ShopIntent/internal/evaluation"
	"ShopIntent/internal/ml"
	applogger "ShopIntent/pkg/logger"
)

// Comparison step names, reported with every failure so operators know
// exactly how far the run got. The default pointer is only touched in
// stepPromote, after everything else has succeeded.
const (
	stepLoadChampion    = "load_champion"
	stepLoadChallenger  = "load_challenger"
	stepFetchTestWindow = "fetch_test_window"
	stepScoreModels     = "score_models"
	stepComputeMetrics  = "compute_metrics"
	stepPromote         = "promote"
)

// ComparisonPipeline runs one champion/challenger evaluation: the current
// default version against the most recently trained one, scored on the
// identical row set drawn from the challenger's post-training window.
type ComparisonPipeline struct {
	store    domrepo.DatasetStore
	registry domrepo.ModelRegistry
	audit    domrepo.AuditPublisher
	metrics  domrepo.Metrics
	l        *applogger.Logger

	modelName string
}

func NewComparisonPipeline(
	store domrepo.DatasetStore,
	registry domrepo.ModelRegistry,
	audit domrepo.AuditPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	modelName string,
) *ComparisonPipeline {
	return &ComparisonPipeline{
		store:     store,
		registry:  registry,
		audit:     audit,
		metrics:   metrics,
		l:         l,
		modelName: modelName,
	}
}

// Run executes the full comparison. The returned decision is complete even
// when promotion was declined. A failure in any step aborts the run before
// the registry is touched; a failure in the promotion step itself is
// reported as models.ErrRegistryMutation because the decision was already
// made and operators must remediate by hand.
func (p *ComparisonPipeline) Run(ctx context.Context) (models.PromotionDecision, error) {
	start := time.Now()
	var zero models.PromotionDecision

	champion, err := p.registry.GetDefault(ctx, p.modelName)
	if err != nil {
		return zero, p.fail(stepLoadChampion, err)
	}

	// A challenger identical to the champion is still compared: equal
	// scores decide promote=false, which is the correct no-op.
	challenger, err := p.registry.GetLatest(ctx, p.modelName)
	if err != nil {
		return zero, p.fail(stepLoadChallenger, err)
	}

	window := models.TestWindowFor(challenger.CreatedAt)
	rows, err := p.store.FetchLabeledWindow(ctx, window)
	if err != nil {
		return zero, p.fail(stepFetchTestWindow, err)
	}

	// Both versions score the same rows slice in the same order; the
	// metric comparison is meaningless otherwise.
	championScores, err := p.scoreVersion(champion, rows)
	if err != nil {
		return zero, p.fail(stepScoreModels, err)
	}
	challengerScores, err := p.scoreVersion(challenger, rows)
	if err != nil {
		return zero, p.fail(stepScoreModels, err)
	}

	yTrue := ml.Labels(rows)
	championBundle, err := evaluation.Calc(yTrue, championScores.labels, championScores.proba)
	if err != nil {
		return zero, p.fail(stepComputeMetrics, err)
	}
	challengerBundle, err := evaluation.Calc(yTrue, challengerScores.labels, challengerScores.proba)
	if err != nil {
		return zero, p.fail(stepComputeMetrics, err)
	}

	// Strict greater-than: a tie keeps the champion.
	promote := challengerBundle.PRAUC > championBundle.PRAUC
	decision := models.PromotionDecision{
		ModelName:        p.modelName,
		Promote:          promote,
		MetricUsed:       models.MetricPRAUC,
		ChampionScores:   championBundle,
		ChallengerScores: challengerBundle,
		RowsEvaluated:    len(rows),
		WindowStart:      window.Start,
		WindowEnd:        window.End,
		DecidedAt:        time.Now().UTC(),
	}
	if promote {
		decision.WinningVersion = challenger.VersionID
		decision.LosingVersion = champion.VersionID
	} else {
		decision.WinningVersion = champion.VersionID
		decision.LosingVersion = challenger.VersionID
	}

	if promote {
		if err := p.registry.SetDefault(ctx, p.modelName, challenger.VersionID, champion.VersionID); err != nil {
			p.metrics.RecordPipelineRun("comparison", "mutation_failed")
			return decision, fmt.Errorf("%s: %w: %v", stepPromote, models.ErrRegistryMutation, err)
		}
		p.metrics.RecordPromotion(p.modelName)
	}

	if err := p.audit.PublishDecision(ctx, decision); err != nil && p.l != nil {
		p.l.Warn("audit publish failed", applogger.Error(err))
	}

	outcome := "no_op"
	if promote {
		outcome = "promoted"
	}
	p.metrics.RecordPipelineRun("comparison", outcome)
	p.metrics.RecordLatency("comparison", time.Since(start).Seconds())
	if p.l != nil {
		p.l.Info("comparison finished",
			applogger.String("model", p.modelName),
			applogger.String("outcome", outcome),
			applogger.String("champion", champion.VersionID),
			applogger.String("challenger", challenger.VersionID),
			applogger.Float64("champion_pr_auc", championBundle.PRAUC),
			applogger.Float64("challenger_pr_auc", challengerBundle.PRAUC),
			applogger.Int("rows", len(rows)),
		)
	}
	return decision, nil
}

type scoredVersion struct {
	labels []int
	proba  []float64
}

func (p *ComparisonPipeline) scoreVersion(v models.ModelVersion, rows []models.SessionRow) (scoredVersion, error) {
	pred, err := ml.PredictorForVersion(v)
	if err != nil {
		return scoredVersion{}, err
	}
	labels, err := pred.PredictLabel(rows)
	if err != nil {
		return scoredVersion{}, err
	}
	proba, err := pred.PredictProba(rows)
	if err != nil {
		return scoredVersion{}, err
	}
	return scoredVersion{labels: labels, proba: proba}, nil
}

func (p *ComparisonPipeline) fail(step string, err error) error {
	p.metrics.RecordPipelineRun("comparison", "failed")
	if p.l != nil {
		p.l.Error("comparison step failed",
			applogger.String("model", p.modelName),
			applogger.String("step", step),
			applogger.Error(err),
		)
	}
	return fmt.Errorf("%s: %w", step, err)
}
