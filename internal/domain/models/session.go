package models

import (
	"fmt"
	"time"
)

// SessionRow is one row of the warehouse dataset table: a single shopping
// session with its behavioral features and, for labeled rows, the purchase
// outcome.
type SessionRow struct {
	UID         string
	SessionDate time.Time
	// Revenue is the binary purchase label (0/1). Unlabeled prediction rows
	// carry -1.
	Revenue int

	Administrative         float64
	AdministrativeDuration float64
	Informational          float64
	InformationalDuration  float64
	ProductRelated         float64
	ProductRelatedDuration float64
	BounceRates            float64
	ExitRates              float64
	PageValues             float64
	SpecialDay             float64

	OperatingSystems string
	Browser          string
	Region           string
	TrafficType      string
	VisitorType      string
	Weekend          string
}

// Numeric returns the named numeric feature value.
func (r *SessionRow) Numeric(name string) (float64, error) {
	switch name {
	case "administrative":
		return r.Administrative, nil
	case "administrative_duration":
		return r.AdministrativeDuration, nil
	case "informational":
		return r.Informational, nil
	case "informational_duration":
		return r.InformationalDuration, nil
	case "productrelated":
		return r.ProductRelated, nil
	case "productrelated_duration":
		return r.ProductRelatedDuration, nil
	case "bouncerates":
		return r.BounceRates, nil
	case "exitrates":
		return r.ExitRates, nil
	case "pagevalues":
		return r.PageValues, nil
	case "specialday":
		return r.SpecialDay, nil
	}
	return 0, fmt.Errorf("%w: unknown numeric feature %q", ErrInference, name)
}

// Categorical returns the named categorical feature value.
func (r *SessionRow) Categorical(name string) (string, error) {
	switch name {
	case "operatingsystems":
		return r.OperatingSystems, nil
	case "browser":
		return r.Browser, nil
	case "region":
		return r.Region, nil
	case "traffictype":
		return r.TrafficType, nil
	case "visitortype":
		return r.VisitorType, nil
	case "weekend":
		return r.Weekend, nil
	}
	return "", fmt.Errorf("%w: unknown categorical feature %q", ErrInference, name)
}

// FeatureSchema is the typed replacement for the config-driven column lists:
// which columns feed the model, and which one is the label.
type FeatureSchema struct {
	Numeric     []string `yaml:"numeric" json:"numeric"`
	Categorical []string `yaml:"categorical" json:"categorical"`
	Target      string   `yaml:"target" json:"target"`
}

// Width is the total number of raw feature columns.
func (s FeatureSchema) Width() int { return len(s.Numeric) + len(s.Categorical) }

// Validate checks the schema names against the session row accessors so a
// bad config fails at startup, not mid-pipeline.
func (s FeatureSchema) Validate() error {
	var probe SessionRow
	for _, n := range s.Numeric {
		if _, err := probe.Numeric(n); err != nil {
			return err
		}
	}
	for _, c := range s.Categorical {
		if _, err := probe.Categorical(c); err != nil {
			return err
		}
	}
	if s.Target == "" {
		return fmt.Errorf("feature schema: target column is required")
	}
	return nil
}

// ScoreRecord is one persisted prediction, keyed by (UID, SessionDate).
type ScoreRecord struct {
	UID          string    `json:"uid"`
	SessionDate  time.Time `json:"session_date"`
	ModelName    string    `json:"model_name"`
	ModelVersion string    `json:"model_version"`
	Score        float64   `json:"score"`
}

// DateWindow is a closed date range used to select warehouse rows.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// TestWindowFor computes the champion/challenger evaluation window from a
// challenger's creation time: [created_at+1d, created_at+14d].
func TestWindowFor(createdAt time.Time) DateWindow {
	return DateWindow{
		Start: createdAt.AddDate(0, 0, 1),
		End:   createdAt.AddDate(0, 0, 14),
	}
}

// TrainingWindowFor computes the training window ending at now and reaching
// back the configured number of months.
func TrainingWindowFor(now time.Time, periodMonths int) DateWindow {
	return DateWindow{
		Start: now.AddDate(0, -periodMonths, 0),
		End:   now,
	}
}
