package models

import "time"

// Metric names as stored in registry metric maps and audit events.
const (
	MetricAccuracy  = "Accuracy"
	MetricPrecision = "Precision"
	MetricRecall    = "Recall"
	MetricROCAUC    = "ROC-AUC"
	MetricPRAUC     = "PR-AUC"
)

// MetricBundle is the fixed evaluation bundle computed for every model
// assessment. All values lie in [0,1].
type MetricBundle struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	ROCAUC    float64 `json:"roc_auc"`
	PRAUC     float64 `json:"pr_auc"`
}

// Map renders the bundle in registry/audit form.
func (m MetricBundle) Map() map[string]float64 {
	return map[string]float64{
		MetricAccuracy:  m.Accuracy,
		MetricPrecision: m.Precision,
		MetricRecall:    m.Recall,
		MetricROCAUC:    m.ROCAUC,
		MetricPRAUC:     m.PRAUC,
	}
}

// PromotionDecision is the outcome of one champion/challenger comparison.
// It is fully computed before any registry mutation is attempted.
type PromotionDecision struct {
	ModelName        string       `json:"model_name"`
	Promote          bool         `json:"promote"`
	WinningVersion   string       `json:"winning_version"`
	LosingVersion    string       `json:"losing_version"`
	MetricUsed       string       `json:"metric_used"`
	ChampionScores   MetricBundle `json:"champion_scores"`
	ChallengerScores MetricBundle `json:"challenger_scores"`
	RowsEvaluated    int          `json:"rows_evaluated"`
	WindowStart      time.Time    `json:"window_start"`
	WindowEnd        time.Time    `json:"window_end"`
	DecidedAt        time.Time    `json:"decided_at"`
}
