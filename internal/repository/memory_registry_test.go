package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ShopIntent/internal/domain/models"
)

func mustLog(t *testing.T, r *MemoryRegistry, name, versionID string, at time.Time) {
	t.Helper()
	require.NoError(t, r.LogVersion(context.Background(), models.ModelVersion{
		Name:      name,
		VersionID: versionID,
		CreatedAt: at,
	}))
}

func TestGetLatestPicksNewestVersion(t *testing.T) {
	r := NewMemoryRegistry()
	mustLog(t, r, "intent", "v_240101_000000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	mustLog(t, r, "intent", "v_240301_000000", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	latest, err := r.GetLatest(context.Background(), "intent")
	require.NoError(t, err)
	assert.Equal(t, "v_240301_000000", latest.VersionID)
}

func TestGetLatestTieBreaksDeterministically(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := NewMemoryRegistry()
	mustLog(t, r, "intent", "v_240501_090000a", at)
	mustLog(t, r, "intent", "v_240501_090000b", at)

	latest, err := r.GetLatest(context.Background(), "intent")
	require.NoError(t, err)
	assert.Equal(t, "v_240501_090000b", latest.VersionID)
}

func TestGetLatestUnknownModel(t *testing.T) {
	r := NewMemoryRegistry()
	_, err := r.GetLatest(context.Background(), "ghost")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestLogVersionRejectsDuplicates(t *testing.T) {
	r := NewMemoryRegistry()
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mustLog(t, r, "intent", "v_240201_000000", at)

	err := r.LogVersion(context.Background(), models.ModelVersion{
		Name: "intent", VersionID: "v_240201_000000", CreatedAt: at,
	})
	assert.True(t, errors.Is(err, models.ErrDuplicateVersion))
}

func TestLogVersionNeverTouchesDefault(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()
	mustLog(t, r, "intent", "v_240101_000000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, r.SetDefault(ctx, "intent", "v_240101_000000", ""))

	mustLog(t, r, "intent", "v_240301_000000", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	def, err := r.GetDefault(ctx, "intent")
	require.NoError(t, err)
	assert.Equal(t, "v_240101_000000", def.VersionID)
}

func TestSetDefaultRequiresKnownVersion(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()
	mustLog(t, r, "intent", "v_240101_000000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	err := r.SetDefault(ctx, "intent", "v_990101_000000", "")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestSetDefaultCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()
	mustLog(t, r, "intent", "v_240101_000000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	mustLog(t, r, "intent", "v_240201_000000", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	mustLog(t, r, "intent", "v_240301_000000", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, r.SetDefault(ctx, "intent", "v_240101_000000", ""))

	// Guard matches: pointer moves.
	require.NoError(t, r.SetDefault(ctx, "intent", "v_240201_000000", "v_240101_000000"))

	// Guard is stale: pointer must not move.
	err := r.SetDefault(ctx, "intent", "v_240301_000000", "v_240101_000000")
	assert.True(t, errors.Is(err, models.ErrConflict))

	def, err := r.GetDefault(ctx, "intent")
	require.NoError(t, err)
	assert.Equal(t, "v_240201_000000", def.VersionID)
}

func TestGetDefaultWithoutDefault(t *testing.T) {
	r := NewMemoryRegistry()
	mustLog(t, r, "intent", "v_240101_000000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := r.GetDefault(context.Background(), "intent")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestListVersionsReturnsInsertionOrder(t *testing.T) {
	r := NewMemoryRegistry()
	mustLog(t, r, "intent", "v_240101_000000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	mustLog(t, r, "intent", "v_240301_000000", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	versions, err := r.ListVersions(context.Background(), "intent")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "v_240101_000000", versions[0].VersionID)
	assert.Equal(t, "v_240301_000000", versions[1].VersionID)
}
