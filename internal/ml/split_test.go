package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainTestSplitSizesAndDeterminism(t *testing.T) {
	rows := separableRows(100)

	train, test := TrainTestSplit(rows, 0.2, 7)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)

	train2, test2 := TrainTestSplit(rows, 0.2, 7)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	seen := make(map[string]bool, len(rows))
	for _, r := range train {
		seen[r.UID] = true
	}
	for _, r := range test {
		require.False(t, seen[r.UID], "row %s in both splits", r.UID)
		seen[r.UID] = true
	}
	assert.Len(t, seen, len(rows))
}

func TestStratifiedKFoldPreservesClassBalance(t *testing.T) {
	y := make([]int, 100)
	for i := range y {
		if i < 20 {
			y[i] = 1
		}
	}

	folds := StratifiedKFold(y, 5, 11)
	require.Len(t, folds, 5)

	total := 0
	for _, fold := range folds {
		pos := 0
		for _, idx := range fold {
			if y[idx] == 1 {
				pos++
			}
		}
		assert.Equal(t, 4, pos, "each fold carries its share of positives")
		total += len(fold)
	}
	assert.Equal(t, len(y), total)
}

func TestSplitByFoldPartitions(t *testing.T) {
	rows := separableRows(30)
	folds := StratifiedKFold(Labels(rows), 3, 2)

	train, val := SplitByFold(rows, folds, 1)
	assert.Equal(t, len(rows), len(train)+len(val))
	assert.Len(t, val, len(folds[1]))
}
