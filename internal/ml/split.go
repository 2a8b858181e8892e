package ml

import (
	"math/rand"

	"ShopIntent/internal/domain/models"
)

// TrainTestSplit shuffles rows with the given seed and carves off the last
// testFraction as a held-out set.
func TrainTestSplit(rows []models.SessionRow, testFraction float64, seed int64) (train, test []models.SessionRow) {
	rng := rand.New(rand.NewSource(seed))
	shuffled := make([]models.SessionRow, len(rows))
	copy(shuffled, rows)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := len(shuffled) - int(float64(len(shuffled))*testFraction)
	if cut <= 0 {
		cut = len(shuffled)
	}
	return shuffled[:cut], shuffled[cut:]
}

// StratifiedKFold assigns row indices to k folds, preserving the class
// balance of y in each fold. Shuffled, deterministic for a fixed seed.
func StratifiedKFold(y []int, k int, seed int64) [][]int {
	if k < 2 {
		k = 2
	}
	rng := rand.New(rand.NewSource(seed))

	var pos, neg []int
	for i, label := range y {
		if label == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	rng.Shuffle(len(pos), func(i, j int) { pos[i], pos[j] = pos[j], pos[i] })
	rng.Shuffle(len(neg), func(i, j int) { neg[i], neg[j] = neg[j], neg[i] })

	folds := make([][]int, k)
	for i, idx := range pos {
		folds[i%k] = append(folds[i%k], idx)
	}
	for i, idx := range neg {
		folds[i%k] = append(folds[i%k], idx)
	}
	return folds
}

// SplitByFold partitions rows into validation (fold) and training (rest).
func SplitByFold(rows []models.SessionRow, folds [][]int, fold int) (train, val []models.SessionRow) {
	inFold := make(map[int]struct{}, len(folds[fold]))
	for _, i := range folds[fold] {
		inFold[i] = struct{}{}
	}
	for i := range rows {
		if _, ok := inFold[i]; ok {
			val = append(val, rows[i])
		} else {
			train = append(train, rows[i])
		}
	}
	return train, val
}
