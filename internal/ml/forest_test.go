package ml

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ShopIntent/internal/domain/models"
)

func testSchema() models.FeatureSchema {
	return models.FeatureSchema{
		Numeric:     []string{"pagevalues", "bouncerates"},
		Categorical: []string{"weekend"},
		Target:      "revenue",
	}
}

// separableRows builds sessions whose label is fully determined by
// pagevalues, so a forest should learn them near-perfectly.
func separableRows(n int) []models.SessionRow {
	rows := make([]models.SessionRow, n)
	for i := range rows {
		pv := float64(i % 10)
		label := 0
		if pv >= 5 {
			label = 1
		}
		weekend := "FALSE"
		if i%3 == 0 {
			weekend = "TRUE"
		}
		rows[i] = models.SessionRow{
			UID:         fmt.Sprintf("uid-%04d", i),
			SessionDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i%30),
			Revenue:     label,
			PageValues:  pv,
			BounceRates: float64((i * 7) % 13),
			Weekend:     weekend,
		}
	}
	return rows
}

func TestFitLearnsSeparableLabels(t *testing.T) {
	rows := separableRows(200)
	art, err := Fit(testSchema(), rows, ForestParams{Trees: 30, Seed: 1})
	require.NoError(t, err)

	pred := NewPredictor(art)
	labels, err := pred.PredictLabel(rows)
	require.NoError(t, err)
	require.Len(t, labels, len(rows))

	correct := 0
	for i := range rows {
		if labels[i] == rows[i].Revenue {
			correct++
		}
	}
	assert.Greater(t, float64(correct)/float64(len(rows)), 0.95)
}

func TestPredictProbaBoundsAndOrder(t *testing.T) {
	rows := separableRows(120)
	art, err := Fit(testSchema(), rows, ForestParams{Trees: 20, Seed: 3})
	require.NoError(t, err)

	proba, err := NewPredictor(art).PredictProba(rows)
	require.NoError(t, err)
	require.Len(t, proba, len(rows))
	for i, p := range proba {
		assert.GreaterOrEqual(t, p, 0.0, "row %d", i)
		assert.LessOrEqual(t, p, 1.0, "row %d", i)
	}
}

func TestTrainingIsDeterministicForFixedSeed(t *testing.T) {
	rows := separableRows(150)
	params := ForestParams{Trees: 15, Seed: 42}

	a, err := Fit(testSchema(), rows, params)
	require.NoError(t, err)
	b, err := Fit(testSchema(), rows, params)
	require.NoError(t, err)

	pa, err := NewPredictor(a).PredictProba(rows)
	require.NoError(t, err)
	pb, err := NewPredictor(b).PredictProba(rows)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestArtifactRoundTrip(t *testing.T) {
	rows := separableRows(100)
	art, err := Fit(testSchema(), rows, ForestParams{Trees: 10, Seed: 5})
	require.NoError(t, err)

	blob, err := art.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalArtifact(blob)
	require.NoError(t, err)

	want, err := NewPredictor(art).PredictProba(rows)
	require.NoError(t, err)
	got, err := NewPredictor(restored).PredictProba(rows)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUnmarshalArtifactRejectsGarbage(t *testing.T) {
	_, err := UnmarshalArtifact([]byte(`{"schema":{}}`))
	assert.Error(t, err)
}

func TestEncoderUnknownLevelMapsToSentinel(t *testing.T) {
	rows := separableRows(50)
	enc, err := FitEncoder(testSchema(), rows)
	require.NoError(t, err)

	unseen := rows[0]
	unseen.Weekend = "MAYBE"
	x, err := enc.Transform([]models.SessionRow{unseen})
	require.NoError(t, err)
	// Categorical features come after the numeric block.
	assert.Equal(t, -1.0, x[0][2])
}

func TestFitEncoderRejectsEmptyAndBadSchema(t *testing.T) {
	_, err := FitEncoder(testSchema(), nil)
	assert.Error(t, err)

	bad := models.FeatureSchema{Numeric: []string{"nope"}, Target: "revenue"}
	_, err = FitEncoder(bad, separableRows(10))
	assert.Error(t, err)
}
