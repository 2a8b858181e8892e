// Package evaluation computes the fixed metric bundle used for both
// training-time validation and champion/challenger comparison.
package evaluation

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"ShopIntent/internal/domain/models"
)

// Calc computes {Accuracy, Precision, Recall, ROC-AUC, PR-AUC} from true
// labels, predicted labels, and class-1 probabilities. All three slices must
// have the same non-zero length. A single-class yTrue makes both AUC metrics
// undefined and is rejected as invalid input rather than silently mapped to
// 0 or NaN.
func Calc(yTrue, yPred []int, yPredProba []float64) (models.MetricBundle, error) {
	var b models.MetricBundle
	n := len(yTrue)
	if n == 0 || len(yPred) != n || len(yPredProba) != n {
		return b, fmt.Errorf("%w: lengths true=%d pred=%d proba=%d",
			models.ErrInvalidInput, n, len(yPred), len(yPredProba))
	}

	var tp, fp, fn, correct, positives float64
	for i := 0; i < n; i++ {
		if yTrue[i] == yPred[i] {
			correct++
		}
		if yTrue[i] == 1 {
			positives++
			if yPred[i] == 1 {
				tp++
			} else {
				fn++
			}
		} else if yPred[i] == 1 {
			fp++
		}
	}
	if positives == 0 || positives == float64(n) {
		return b, fmt.Errorf("%w: single class in y_true, AUC undefined", models.ErrInvalidInput)
	}

	b.Accuracy = correct / float64(n)
	if tp+fp > 0 {
		b.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		b.Recall = tp / (tp + fn)
	}
	b.ROCAUC = rocAUC(yTrue, yPredProba)
	b.PRAUC = averagePrecision(yTrue, yPredProba)

	return b, nil
}

// rocAUC ranks probabilities against the true labels with gonum's ROC curve
// and integrates it.
func rocAUC(yTrue []int, proba []float64) float64 {
	n := len(yTrue)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, c int) bool { return proba[order[a]] < proba[order[c]] })

	y := make([]float64, n)
	classes := make([]bool, n)
	for i, idx := range order {
		y[i] = proba[idx]
		classes[i] = yTrue[idx] == 1
	}

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// averagePrecision computes PR-AUC as average precision: the mean of the
// precision values at each positive hit, walking scores in descending order.
func averagePrecision(yTrue []int, proba []float64) float64 {
	n := len(yTrue)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, c int) bool { return proba[order[a]] > proba[order[c]] })

	var positives float64
	for _, label := range yTrue {
		positives += float64(label)
	}

	var tp, fp, ap float64
	for _, idx := range order {
		if yTrue[idx] == 1 {
			tp++
			ap += tp / (tp + fp) / positives
		} else {
			fp++
		}
	}
	return ap
}

// FoldStat is the cross-validation summary of one metric.
type FoldStat struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// SummarizeFolds reduces per-fold bundles to mean and stddev per metric,
// for cross-validation reporting.
func SummarizeFolds(bundles []models.MetricBundle) map[string]FoldStat {
	series := make(map[string][]float64, 5)
	for _, b := range bundles {
		for name, v := range b.Map() {
			series[name] = append(series[name], v)
		}
	}
	out := make(map[string]FoldStat, len(series))
	for name, vals := range series {
		mean, _ := stats.Mean(vals)
		sd, _ := stats.StandardDeviation(vals)
		out[name] = FoldStat{Mean: mean, StdDev: sd}
	}
	return out
}
