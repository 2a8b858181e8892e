package evaluation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ShopIntent/internal/domain/models"
)

func TestCalcKnownBundle(t *testing.T) {
	yTrue := []int{0, 1, 1, 0, 1}
	yPred := []int{0, 1, 1, 0, 0}
	proba := []float64{0.1, 0.9, 0.8, 0.2, 0.4}

	b, err := Calc(yTrue, yPred, proba)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, b.Accuracy, 1e-9)
	assert.InDelta(t, 1.0, b.Precision, 1e-9)
	// 2 of the 3 positives predicted positive.
	assert.InDelta(t, 2.0/3.0, b.Recall, 1e-9)
	// Every positive outranks every negative.
	assert.InDelta(t, 1.0, b.ROCAUC, 1e-9)
	assert.InDelta(t, 1.0, b.PRAUC, 1e-9)
}

func TestCalcImperfectRanking(t *testing.T) {
	yTrue := []int{1, 0, 1, 0}
	yPred := []int{1, 1, 0, 0}
	proba := []float64{0.9, 0.8, 0.3, 0.1}

	b, err := Calc(yTrue, yPred, proba)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, b.Accuracy, 1e-9)
	assert.InDelta(t, 0.5, b.Precision, 1e-9)
	assert.InDelta(t, 0.5, b.Recall, 1e-9)
	// Pairs: (0.9 vs 0.8) ok, (0.9 vs 0.1) ok, (0.3 vs 0.8) wrong,
	// (0.3 vs 0.1) ok -> 3/4.
	assert.InDelta(t, 0.75, b.ROCAUC, 1e-9)
	// Hits at ranks 1 and 3: (1/1 + 2/3)/2.
	assert.InDelta(t, (1.0+2.0/3.0)/2.0, b.PRAUC, 1e-9)
}

func TestCalcBounds(t *testing.T) {
	yTrue := []int{1, 0, 0, 1, 1, 0, 1, 0}
	yPred := []int{1, 0, 1, 0, 1, 0, 1, 1}
	proba := []float64{0.7, 0.3, 0.6, 0.4, 0.8, 0.1, 0.9, 0.55}

	b, err := Calc(yTrue, yPred, proba)
	require.NoError(t, err)
	for name, v := range b.Map() {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
}

func TestCalcInvalidInput(t *testing.T) {
	cases := []struct {
		name  string
		yTrue []int
		yPred []int
		proba []float64
	}{
		{"empty", nil, nil, nil},
		{"length mismatch", []int{1, 0}, []int{1}, []float64{0.5, 0.5}},
		{"proba mismatch", []int{1, 0}, []int{1, 0}, []float64{0.5}},
		{"all positive", []int{1, 1, 1}, []int{1, 1, 1}, []float64{0.9, 0.8, 0.7}},
		{"all negative", []int{0, 0, 0}, []int{0, 0, 0}, []float64{0.1, 0.2, 0.3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Calc(tc.yTrue, tc.yPred, tc.proba)
			assert.True(t, errors.Is(err, models.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestSummarizeFolds(t *testing.T) {
	bundles := []models.MetricBundle{
		{Accuracy: 0.8, Precision: 1.0, Recall: 0.5, ROCAUC: 0.9, PRAUC: 0.7},
		{Accuracy: 0.6, Precision: 0.8, Recall: 0.7, ROCAUC: 0.7, PRAUC: 0.5},
	}
	summary := SummarizeFolds(bundles)

	require.Len(t, summary, 5)
	assert.InDelta(t, 0.7, summary[models.MetricAccuracy].Mean, 1e-9)
	assert.InDelta(t, 0.6, summary[models.MetricPRAUC].Mean, 1e-9)
	assert.Greater(t, summary[models.MetricAccuracy].StdDev, 0.0)
}
