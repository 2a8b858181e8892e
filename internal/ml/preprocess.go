package ml

import (
	"fmt"
	"math"

	"ShopIntent/internal/domain/models"
)

// Encoder turns session rows into the numeric matrix the forest consumes.
// Numeric features are standardized with training-time mean/stddev,
// categorical features are ordinal-encoded with unknown levels mapped to -1.
// Scaling is not needed by the forest itself but is kept so the encoded
// matrix stays usable if another estimator is plugged in.
type Encoder struct {
	Schema models.FeatureSchema `json:"schema"`
	Means  []float64            `json:"means"`
	Stds   []float64            `json:"stds"`
	Levels []map[string]int     `json:"levels"`
}

// FitEncoder computes standardization statistics and categorical level maps
// from the training rows.
func FitEncoder(schema models.FeatureSchema, rows []models.SessionRow) (*Encoder, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit encoder: %w", models.ErrEmptyWindow)
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("fit encoder: %w", err)
	}

	e := &Encoder{
		Schema: schema,
		Means:  make([]float64, len(schema.Numeric)),
		Stds:   make([]float64, len(schema.Numeric)),
		Levels: make([]map[string]int, len(schema.Categorical)),
	}

	n := float64(len(rows))
	for j, name := range schema.Numeric {
		var sum, sum2 float64
		for i := range rows {
			v, err := rows[i].Numeric(name)
			if err != nil {
				return nil, err
			}
			sum += v
			sum2 += v * v
		}
		mean := sum / n
		variance := sum2/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		e.Means[j] = mean
		e.Stds[j] = math.Sqrt(variance)
	}

	for j, name := range schema.Categorical {
		levels := make(map[string]int)
		for i := range rows {
			v, err := rows[i].Categorical(name)
			if err != nil {
				return nil, err
			}
			if _, ok := levels[v]; !ok {
				levels[v] = len(levels)
			}
		}
		e.Levels[j] = levels
	}

	return e, nil
}

// Transform encodes rows into a dense feature matrix, preserving row order.
// Rows with feature names outside the fitted schema fail with ErrInference.
func (e *Encoder) Transform(rows []models.SessionRow) ([][]float64, error) {
	out := make([][]float64, len(rows))
	width := e.Schema.Width()
	for i := range rows {
		vec := make([]float64, 0, width)
		for j, name := range e.Schema.Numeric {
			v, err := rows[i].Numeric(name)
			if err != nil {
				return nil, err
			}
			if e.Stds[j] > 0 {
				v = (v - e.Means[j]) / e.Stds[j]
			} else {
				v -= e.Means[j]
			}
			vec = append(vec, v)
		}
		for j, name := range e.Schema.Categorical {
			v, err := rows[i].Categorical(name)
			if err != nil {
				return nil, err
			}
			code, ok := e.Levels[j][v]
			if !ok {
				code = -1
			}
			vec = append(vec, float64(code))
		}
		out[i] = vec
	}
	return out, nil
}

// Labels extracts the binary target column from labeled rows.
func Labels(rows []models.SessionRow) []int {
	y := make([]int, len(rows))
	for i := range rows {
		y[i] = rows[i].Revenue
	}
	return y
}
