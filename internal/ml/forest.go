package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"ShopIntent/internal/domain/models"
)

// ForestParams are the tunable random-forest hyperparameters. The zero
// values of Trees/MaxDepth/MinLeaf are replaced by defaults in normalize.
type ForestParams struct {
	Trees       int   `json:"trees" yaml:"trees"`
	MaxDepth    int   `json:"max_depth" yaml:"max_depth"`
	MinLeaf     int   `json:"min_leaf" yaml:"min_leaf"`
	MaxFeatures int   `json:"max_features" yaml:"max_features"` // 0 = sqrt(p)
	Seed        int64 `json:"seed" yaml:"seed"`
}

func (p ForestParams) normalize(width int) ForestParams {
	if p.Trees <= 0 {
		p.Trees = 100
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = 16
	}
	if p.MinLeaf <= 0 {
		p.MinLeaf = 1
	}
	if p.MaxFeatures <= 0 || p.MaxFeatures > width {
		p.MaxFeatures = int(math.Max(1, math.Round(math.Sqrt(float64(width)))))
	}
	return p
}

// treeNode is one CART node. Leaves carry the positive-class vote fraction.
type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Prob      float64   `json:"prob,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

// Forest is a bagged ensemble of CART trees over binary labels.
// Training is deterministic for a fixed seed.
type Forest struct {
	Params ForestParams `json:"params"`
	Roots  []*treeNode  `json:"roots"`
	Width  int          `json:"width"`
}

// TrainForest fits a random forest on an encoded feature matrix.
func TrainForest(x [][]float64, y []int, params ForestParams) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("train forest: %w: %d rows, %d labels", models.ErrInvalidInput, len(x), len(y))
	}
	width := len(x[0])
	p := params.normalize(width)
	rng := rand.New(rand.NewSource(p.Seed))

	f := &Forest{Params: p, Roots: make([]*treeNode, 0, p.Trees), Width: width}
	idx := make([]int, len(x))
	for t := 0; t < p.Trees; t++ {
		// bootstrap sample
		for i := range idx {
			idx[i] = rng.Intn(len(x))
		}
		root := growTree(x, y, idx, 0, p, rng)
		f.Roots = append(f.Roots, root)
	}
	return f, nil
}

func growTree(x [][]float64, y []int, idx []int, depth int, p ForestParams, rng *rand.Rand) *treeNode {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	prob := float64(pos) / float64(len(idx))

	if depth >= p.MaxDepth || len(idx) < 2*p.MinLeaf || pos == 0 || pos == len(idx) {
		return &treeNode{Leaf: true, Prob: prob}
	}

	feat, thr, ok := bestSplit(x, y, idx, p, rng)
	if !ok {
		return &treeNode{Leaf: true, Prob: prob}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < p.MinLeaf || len(right) < p.MinLeaf {
		return &treeNode{Leaf: true, Prob: prob}
	}

	return &treeNode{
		Feature:   feat,
		Threshold: thr,
		Left:      growTree(x, y, left, depth+1, p, rng),
		Right:     growTree(x, y, right, depth+1, p, rng),
	}
}

// bestSplit scans a random feature subset for the gini-optimal threshold.
// Candidate thresholds are midpoints between consecutive distinct values,
// capped at 32 per feature to bound the scan on large nodes.
func bestSplit(x [][]float64, y []int, idx []int, p ForestParams, rng *rand.Rand) (int, float64, bool) {
	width := len(x[idx[0]])
	feats := rng.Perm(width)[:p.MaxFeatures]

	bestGini := math.Inf(1)
	bestFeat, bestThr := -1, 0.0

	vals := make([]float64, 0, len(idx))
	for _, feat := range feats {
		vals = vals[:0]
		for _, i := range idx {
			vals = append(vals, x[i][feat])
		}
		sort.Float64s(vals)

		step := 1
		if len(vals) > 33 {
			step = len(vals) / 32
		}
		for k := step; k < len(vals); k += step {
			if vals[k] == vals[k-1] {
				continue
			}
			thr := (vals[k] + vals[k-1]) / 2
			g := splitGini(x, y, idx, feat, thr)
			if g < bestGini {
				bestGini = g
				bestFeat = feat
				bestThr = thr
			}
		}
	}
	return bestFeat, bestThr, bestFeat >= 0
}

func splitGini(x [][]float64, y []int, idx []int, feat int, thr float64) float64 {
	var nl, pl, nr, pr float64
	for _, i := range idx {
		if x[i][feat] <= thr {
			nl++
			pl += float64(y[i])
		} else {
			nr++
			pr += float64(y[i])
		}
	}
	if nl == 0 || nr == 0 {
		return math.Inf(1)
	}
	gini := func(n, pos float64) float64 {
		q := pos / n
		return 2 * q * (1 - q)
	}
	n := nl + nr
	return nl/n*gini(nl, pl) + nr/n*gini(nr, pr)
}

// PredictProba returns the positive-class vote fraction per row.
func (f *Forest) PredictProba(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, vec := range x {
		if len(vec) != f.Width {
			return nil, fmt.Errorf("%w: expected %d features, got %d", models.ErrInference, f.Width, len(vec))
		}
		var sum float64
		for _, root := range f.Roots {
			sum += evalTree(root, vec)
		}
		out[i] = sum / float64(len(f.Roots))
	}
	return out, nil
}

// PredictLabel thresholds vote fractions at 0.5.
func (f *Forest) PredictLabel(x [][]float64) ([]int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func evalTree(n *treeNode, vec []float64) float64 {
	for !n.Leaf {
		if vec[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Prob
}
