package ml

import (
	"encoding/json"
	"fmt"
	"time"

	"ShopIntent/internal/domain/models"
)

// Artifact bundles everything needed to score sessions: the feature schema,
// the fitted encoder, and the trained forest. It is what the registry
// persists for a model version.
type Artifact struct {
	Schema    models.FeatureSchema `json:"schema"`
	Encoder   *Encoder             `json:"encoder"`
	Forest    *Forest              `json:"forest"`
	TrainedAt time.Time            `json:"trained_at"`
}

// Fit trains a complete artifact: encoder statistics from rows, then the
// forest on the encoded matrix.
func Fit(schema models.FeatureSchema, rows []models.SessionRow, params ForestParams) (*Artifact, error) {
	enc, err := FitEncoder(schema, rows)
	if err != nil {
		return nil, err
	}
	x, err := enc.Transform(rows)
	if err != nil {
		return nil, err
	}
	forest, err := TrainForest(x, Labels(rows), params)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Schema:    schema,
		Encoder:   enc,
		Forest:    forest,
		TrainedAt: time.Now().UTC(),
	}, nil
}

// Marshal serializes the artifact for registry storage.
func (a *Artifact) Marshal() ([]byte, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal artifact: %w", err)
	}
	return b, nil
}

// UnmarshalArtifact restores an artifact from registry bytes.
func UnmarshalArtifact(b []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	if a.Encoder == nil || a.Forest == nil {
		return nil, fmt.Errorf("unmarshal artifact: %w: missing encoder or forest", models.ErrInference)
	}
	return &a, nil
}

// Classifier scores session rows. Implementations are pure: no side effects,
// output order matches input order.
type Classifier interface {
	PredictLabel(rows []models.SessionRow) ([]int, error)
	PredictProba(rows []models.SessionRow) ([]float64, error)
}

// Predictor adapts an artifact to the Classifier interface.
type Predictor struct {
	art *Artifact
}

// NewPredictor wraps a deserialized artifact.
func NewPredictor(a *Artifact) *Predictor { return &Predictor{art: a} }

// PredictorForVersion deserializes the artifact of a registry version.
func PredictorForVersion(v models.ModelVersion) (*Predictor, error) {
	a, err := UnmarshalArtifact(v.Artifact)
	if err != nil {
		return nil, fmt.Errorf("version %s: %w", v.VersionID, err)
	}
	return NewPredictor(a), nil
}

// PredictProba returns the class-1 probability per row, order-preserving.
func (p *Predictor) PredictProba(rows []models.SessionRow) ([]float64, error) {
	x, err := p.art.Encoder.Transform(rows)
	if err != nil {
		return nil, err
	}
	return p.art.Forest.PredictProba(x)
}

// PredictLabel returns hard 0/1 labels per row, order-preserving.
func (p *Predictor) PredictLabel(rows []models.SessionRow) ([]int, error) {
	x, err := p.art.Encoder.Transform(rows)
	if err != nil {
		return nil, err
	}
	return p.art.Forest.PredictLabel(x)
}
