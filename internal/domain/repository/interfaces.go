package repository

import (
	"context"
	"time"

	"ShopIntent/internal/domain/models"
)

// DatasetStore is the narrow warehouse surface the pipelines depend on:
// fetch rows matching a date predicate, persist a small scored table.
type DatasetStore interface {
	// InitSchema ensures the source, dataset, and scores tables exist.
	InitSchema(ctx context.Context) error

	// ReplaceSource overwrites the raw source table with freshly ingested rows.
	ReplaceSource(ctx context.Context, rows []models.SessionRow) error

	// RebuildDataset derives the ML dataset table from the source table,
	// keeping rows up to and including targetDate.
	RebuildDataset(ctx context.Context, targetDate time.Time) error

	// AppendDataset appends the source rows of exactly targetDate to the
	// dataset table.
	AppendDataset(ctx context.Context, targetDate time.Time) (int, error)

	// FetchLabeledWindow returns labeled rows with session_date inside the
	// window. Zero rows is models.ErrEmptyWindow, never an empty success.
	FetchLabeledWindow(ctx context.Context, w models.DateWindow) ([]models.SessionRow, error)

	// FetchDay returns the rows of a single session date for prediction.
	// Zero rows is models.ErrEmptyWindow.
	FetchDay(ctx context.Context, day time.Time) ([]models.SessionRow, error)

	// WriteScores persists prediction scores for one session date with
	// delete-then-insert semantics: re-running a date never duplicates rows.
	WriteScores(ctx context.Context, day time.Time, scores []models.ScoreRecord) error

	// FetchScores returns the persisted scores of one session date.
	FetchScores(ctx context.Context, day time.Time) ([]models.ScoreRecord, error)

	Health(ctx context.Context) error
}

// ModelRegistry is a key-value store of named, versioned model artifacts
// with a mutable default pointer per name.
type ModelRegistry interface {
	// GetDefault returns the version currently marked default for name.
	// models.ErrNotFound if the name is unregistered or has no default.
	GetDefault(ctx context.Context, name string) (models.ModelVersion, error)

	// GetLatest returns the version with the most recent CreatedAt;
	// ties break to the lexically larger version id.
	GetLatest(ctx context.Context, name string) (models.ModelVersion, error)

	// GetVersion returns one specific version. models.ErrNotFound if absent.
	GetVersion(ctx context.Context, name, versionID string) (models.ModelVersion, error)

	// ListVersions returns all versions of name in creation order.
	ListVersions(ctx context.Context, name string) ([]models.ModelVersion, error)

	// SetDefault atomically repoints the default. expectedOld guards against
	// concurrent movers: when non-empty and the current default differs, the
	// call fails with models.ErrConflict and nothing changes. A version id
	// outside name's version set fails with models.ErrNotFound.
	SetDefault(ctx context.Context, name, versionID, expectedOld string) error

	// LogVersion registers a new, non-default version.
	// models.ErrDuplicateVersion if the id already exists for name.
	LogVersion(ctx context.Context, v models.ModelVersion) error
}

// AuditPublisher records pipeline outcomes on a side channel for audit;
// the registry remains the source of truth.
type AuditPublisher interface {
	PublishDecision(ctx context.Context, d models.PromotionDecision) error
	PublishTraining(ctx context.Context, v models.ModelVersion) error
	Close() error
}

// Metrics is the operational metrics surface recorded by the pipelines.
type Metrics interface {
	RecordPipelineRun(pipeline, outcome string)
	RecordPromotion(modelName string)
	RecordRowsScored(modelName string, n int)
	RecordLatency(op string, seconds float64)
}
