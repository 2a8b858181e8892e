package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ShopIntent/internal/domain/models"
	"ShopIntent/internal/ml"
	internalrepo "ShopIntent/internal/repository"
	applogger "ShopIntent/pkg/logger"
)

func trainingFixture(store *fakeDatasetStore, registry *internalrepo.MemoryRegistry, search bool) *TrainingPipeline {
	return NewTrainingPipeline(store, registry, internalrepo.NopAuditPublisher{}, newNopMetrics(), applogger.Nop(), TrainingConfig{
		ModelName:     testModel,
		Schema:        sessionSchema(),
		Forest:        ml.ForestParams{Trees: 15, Seed: 4},
		CVSplits:      3,
		TestFraction:  0.2,
		Seed:          1,
		PeriodMonths:  6,
		SearchEnabled: search,
		SearchTrials:  2,
		SearchSeed:    5,
	})
}

func TestTrainingRegistersNonDefaultVersion(t *testing.T) {
	ctx := context.Background()
	store := newFakeDatasetStore()
	store.labeled = labeledSessions(250, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := internalrepo.NewMemoryRegistry()

	now := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	res, err := trainingFixture(store, registry, false).Run(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, "v_240601_030000", res.Version.VersionID)
	assert.Equal(t, len(store.labeled), res.RowsUsed)
	require.Len(t, res.CVSummary, 5)

	// The held-out bundle travels with the version.
	for _, name := range []string{models.MetricAccuracy, models.MetricPRAUC, models.MetricROCAUC} {
		v, ok := res.Version.Metrics[name]
		require.True(t, ok, name)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	// Registered but never promoted here.
	got, err := registry.GetVersion(ctx, testModel, res.Version.VersionID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Artifact)
	_, err = registry.GetDefault(ctx, testModel)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	// The stored artifact must be scoreable.
	pred, err := ml.PredictorForVersion(got)
	require.NoError(t, err)
	proba, err := pred.PredictProba(store.labeled[:10])
	require.NoError(t, err)
	assert.Len(t, proba, 10)
}

func TestTrainingRejectsDuplicateTimestamp(t *testing.T) {
	ctx := context.Background()
	store := newFakeDatasetStore()
	store.labeled = labeledSessions(200, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := internalrepo.NewMemoryRegistry()
	p := trainingFixture(store, registry, false)

	now := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	_, err := p.Run(ctx, now)
	require.NoError(t, err)

	_, err = p.Run(ctx, now)
	assert.True(t, errors.Is(err, models.ErrDuplicateVersion))
}

func TestTrainingEmptyWindowAborts(t *testing.T) {
	store := newFakeDatasetStore()
	registry := internalrepo.NewMemoryRegistry()

	_, err := trainingFixture(store, registry, false).Run(context.Background(), time.Now().UTC())
	assert.True(t, errors.Is(err, models.ErrEmptyWindow))
}

func TestTrainingWithSearchPicksParams(t *testing.T) {
	store := newFakeDatasetStore()
	store.labeled = labeledSessions(150, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := internalrepo.NewMemoryRegistry()

	res, err := trainingFixture(store, registry, true).Run(context.Background(), time.Date(2024, 7, 1, 2, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Search draws from its bounded ranges.
	assert.GreaterOrEqual(t, res.Params.Trees, 50)
	assert.LessOrEqual(t, res.Params.Trees, 300)
	assert.GreaterOrEqual(t, res.Params.MaxDepth, 4)
	assert.LessOrEqual(t, res.Params.MaxDepth, 24)
}
