package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionIDRoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	id := NewVersionID(created)
	assert.Equal(t, "v_240301_123045", id)

	parsed, err := ParseVersionTime(id)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(created))
}

func TestParseVersionTimeBareForm(t *testing.T) {
	parsed, err := ParseVersionTime("240101_000000")
	require.NoError(t, err)
	assert.Equal(t, 2024, parsed.Year())
}

func TestParseVersionTimeInvalid(t *testing.T) {
	_, err := ParseVersionTime("not_a_version")
	assert.Error(t, err)
}

func TestNewerOrdering(t *testing.T) {
	older := ModelVersion{VersionID: "v_240101_000000", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := ModelVersion{VersionID: "v_240301_000000", CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}

	assert.True(t, newer.Newer(older))
	assert.False(t, older.Newer(newer))
}

func TestNewerTieBreaksLexically(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	a := ModelVersion{VersionID: "v_240601_080000", CreatedAt: at}
	b := ModelVersion{VersionID: "v_240601_080000b", CreatedAt: at}

	assert.True(t, b.Newer(a))
	assert.False(t, a.Newer(b))
}

func TestTestWindowFor(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	w := TestWindowFor(created)

	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), w.End)
}

func TestTrainingWindowFor(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	w := TrainingWindowFor(now, 6)

	assert.Equal(t, time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, now, w.End)
}

func TestFeatureSchemaValidate(t *testing.T) {
	good := FeatureSchema{
		Numeric:     []string{"pagevalues", "bouncerates"},
		Categorical: []string{"weekend"},
		Target:      "revenue",
	}
	require.NoError(t, good.Validate())
	assert.Equal(t, 3, good.Width())

	bad := FeatureSchema{Numeric: []string{"no_such_column"}, Target: "revenue"}
	assert.Error(t, bad.Validate())

	noTarget := FeatureSchema{Numeric: []string{"pagevalues"}}
	assert.Error(t, noTarget.Validate())
}
