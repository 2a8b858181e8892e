package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ShopIntent/internal/domain/models"
	internalrepo "ShopIntent/internal/repository"
	applogger "ShopIntent/pkg/logger"
)

func predictionFixture(t *testing.T, day time.Time, dayRows []models.SessionRow) (*PredictionPipeline, *fakeDatasetStore) {
	t.Helper()
	ctx := context.Background()

	trainRows := labeledSessions(200, day.AddDate(0, -2, 0))
	blob := trainedArtifact(t, trainRows)

	registry := internalrepo.NewMemoryRegistry()
	serving := models.ModelVersion{
		Name:      testModel,
		VersionID: "v_240201_000000",
		CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Artifact:  blob,
	}
	require.NoError(t, registry.LogVersion(ctx, serving))
	require.NoError(t, registry.SetDefault(ctx, testModel, serving.VersionID, ""))

	store := newFakeDatasetStore()
	store.days[dayKey(day)] = dayRows

	return NewPredictionPipeline(store, registry, newNopMetrics(), applogger.Nop(), testModel), store
}

func TestPredictionWritesOneScorePerSession(t *testing.T) {
	day := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	rows := labeledSessions(50, day)
	p, store := predictionFixture(t, day, rows)

	n, err := p.Run(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, len(rows), n)

	scores, err := store.FetchScores(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, scores, len(rows))
	for _, sc := range scores {
		assert.Equal(t, testModel, sc.ModelName)
		assert.Equal(t, "v_240201_000000", sc.ModelVersion)
		assert.GreaterOrEqual(t, sc.Score, 0.0)
		assert.LessOrEqual(t, sc.Score, 1.0)
	}
}

func TestPredictionRerunIsIdempotent(t *testing.T) {
	day := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	rows := labeledSessions(40, day)
	p, store := predictionFixture(t, day, rows)

	_, err := p.Run(context.Background(), day)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), day)
	require.NoError(t, err)

	scores, err := store.FetchScores(context.Background(), day)
	require.NoError(t, err)
	assert.Len(t, scores, len(rows), "re-running a day must not duplicate rows")
	assert.Equal(t, 2, store.writeCalls)
}

func TestPredictionEmptyDayAborts(t *testing.T) {
	day := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	p, _ := predictionFixture(t, day, labeledSessions(10, day))

	_, err := p.Run(context.Background(), day.AddDate(0, 0, 1))
	assert.True(t, errors.Is(err, models.ErrEmptyWindow))
}

func TestPredictionWithoutServingVersionFails(t *testing.T) {
	day := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	store := newFakeDatasetStore()
	store.days[dayKey(day)] = labeledSessions(10, day)
	registry := internalrepo.NewMemoryRegistry()

	p := NewPredictionPipeline(store, registry, newNopMetrics(), applogger.Nop(), testModel)
	_, err := p.Run(context.Background(), day)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
