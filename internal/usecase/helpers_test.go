package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ShopIntent/internal/domain/models"
	"ShopIntent/internal/ml"
)

// fakeDatasetStore is an in-memory DatasetStore for pipeline tests. Its
// score table mirrors the warehouse delete-then-insert behavior.
type fakeDatasetStore struct {
	mu      sync.Mutex
	labeled []models.SessionRow
	days    map[string][]models.SessionRow
	scores  map[string]map[string]models.ScoreRecord

	windowErr  error
	writeCalls int
}

func newFakeDatasetStore() *fakeDatasetStore {
	return &fakeDatasetStore{
		days:   make(map[string][]models.SessionRow),
		scores: make(map[string]map[string]models.ScoreRecord),
	}
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

func (s *fakeDatasetStore) InitSchema(context.Context) error { return nil }

func (s *fakeDatasetStore) ReplaceSource(context.Context, []models.SessionRow) error { return nil }

func (s *fakeDatasetStore) RebuildDataset(context.Context, time.Time) error { return nil }

func (s *fakeDatasetStore) AppendDataset(context.Context, time.Time) (int, error) { return 0, nil }

func (s *fakeDatasetStore) FetchLabeledWindow(_ context.Context, w models.DateWindow) ([]models.SessionRow, error) {
	if s.windowErr != nil {
		return nil, s.windowErr
	}
	if len(s.labeled) == 0 {
		return nil, models.ErrEmptyWindow
	}
	return s.labeled, nil
}

func (s *fakeDatasetStore) FetchDay(_ context.Context, day time.Time) ([]models.SessionRow, error) {
	rows, ok := s.days[dayKey(day)]
	if !ok || len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows on %s", models.ErrEmptyWindow, dayKey(day))
	}
	return rows, nil
}

func (s *fakeDatasetStore) WriteScores(_ context.Context, day time.Time, scores []models.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCalls++
	byUID := make(map[string]models.ScoreRecord, len(scores))
	for _, sc := range scores {
		byUID[sc.UID] = sc
	}
	s.scores[dayKey(day)] = byUID
	return nil
}

func (s *fakeDatasetStore) FetchScores(_ context.Context, day time.Time) ([]models.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScoreRecord, 0, len(s.scores[dayKey(day)]))
	for _, sc := range s.scores[dayKey(day)] {
		out = append(out, sc)
	}
	return out, nil
}

func (s *fakeDatasetStore) Health(context.Context) error { return nil }

// nopMetrics satisfies the Metrics interface and counts pipeline outcomes.
type nopMetrics struct {
	mu   sync.Mutex
	runs map[string]int
}

func newNopMetrics() *nopMetrics { return &nopMetrics{runs: make(map[string]int)} }

func (m *nopMetrics) RecordPipelineRun(pipeline, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[pipeline+"/"+outcome]++
}
func (m *nopMetrics) RecordPromotion(string)        {}
func (m *nopMetrics) RecordRowsScored(string, int)  {}
func (m *nopMetrics) RecordLatency(string, float64) {}

func sessionSchema() models.FeatureSchema {
	return models.FeatureSchema{
		Numeric:     []string{"pagevalues", "bouncerates"},
		Categorical: []string{"weekend"},
		Target:      "revenue",
	}
}

// labeledSessions builds sessions whose label follows pagevalues, giving
// trainable, non-degenerate data.
func labeledSessions(n int, start time.Time) []models.SessionRow {
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
			SessionDate: start.AddDate(0, 0, i%13),
			Revenue:     label,
			PageValues:  pv,
			BounceRates: float64((i * 7) % 13),
			Weekend:     weekend,
		}
	}
	return rows
}

// trainedArtifact fits an artifact on rows and returns its serialized form.
func trainedArtifact(t *testing.T, rows []models.SessionRow) []byte {
	t.Helper()
	art, err := ml.Fit(sessionSchema(), rows, ml.ForestParams{Trees: 20, Seed: 9})
	require.NoError(t, err)
	blob, err := art.Marshal()
	require.NoError(t, err)
	return blob
}

// invertLabels flips every label, producing a model that ranks sessions
// backwards.
func invertLabels(rows []models.SessionRow) []models.SessionRow {
	out := make([]models.SessionRow, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].Revenue = 1 - out[i].Revenue
	}
	return out
}
