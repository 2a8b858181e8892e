package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ShopIntent/internal/domain/models"
	pkgch "ShopIntent/pkg/clickhouse"
	applogger "ShopIntent/pkg/logger"
)

const (
	versionsTable = "shopintent.model_versions"
	defaultTable  = "shopintent.model_default"
)

// CHModelRegistry implements ModelRegistry backed by ClickHouse. The
// default pointer lives in a ReplacingMergeTree keyed by model name, so
// SetDefault is an insert and reads go through FINAL.
//
// The expectedOld guard in SetDefault is read-then-write, not a true
// transaction; ClickHouse has no row locks. The single mutation point in
// the comparison pipeline keeps concurrent movers rare, and the guard
// still catches them.
type CHModelRegistry struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHModelRegistry(ch *pkgch.Client) *CHModelRegistry {
	return &CHModelRegistry{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (r *CHModelRegistry) SetLogger(l *applogger.Logger) { r.l = l }

func (r *CHModelRegistry) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE DATABASE IF NOT EXISTS shopintent`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            model_name String,
            version_id String,
            created_at DateTime64(3),
            metrics String,
            artifact String
        ) ENGINE = MergeTree() ORDER BY (model_name, version_id)`, versionsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            model_name String,
            version_id String,
            updated_at DateTime64(3)
        ) ENGINE = ReplacingMergeTree(updated_at) ORDER BY model_name`, defaultTable),
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init registry schema: %w", err)
		}
	}
	return nil
}

func (r *CHModelRegistry) GetDefault(ctx context.Context, name string) (models.ModelVersion, error) {
	var versionID string
	q := fmt.Sprintf(`SELECT version_id FROM %s FINAL WHERE model_name = ?`, defaultTable)
	err := r.db.QueryRowContext(ctx, q, name).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ModelVersion{}, fmt.Errorf("%w: no default for model %q", models.ErrNotFound, name)
	}
	if err != nil {
		return models.ModelVersion{}, fmt.Errorf("get default: %w", err)
	}
	return r.GetVersion(ctx, name, versionID)
}

func (r *CHModelRegistry) GetLatest(ctx context.Context, name string) (models.ModelVersion, error) {
	// created_at DESC then version_id DESC gives the deterministic
	// tie-break on equal timestamps.
	q := fmt.Sprintf(`SELECT model_name, version_id, created_at, metrics, artifact
        FROM %s WHERE model_name = ?
        ORDER BY created_at DESC, version_id DESC
        LIMIT 1`, versionsTable)
	v, err := r.scanVersion(r.db.QueryRowContext(ctx, q, name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ModelVersion{}, fmt.Errorf("%w: model %q has no versions", models.ErrNotFound, name)
	}
	if err != nil {
		return models.ModelVersion{}, fmt.Errorf("get latest: %w", err)
	}
	return v, nil
}

func (r *CHModelRegistry) GetVersion(ctx context.Context, name, versionID string) (models.ModelVersion, error) {
	q := fmt.Sprintf(`SELECT model_name, version_id, created_at, metrics, artifact
        FROM %s WHERE model_name = ? AND version_id = ?`, versionsTable)
	v, err := r.scanVersion(r.db.QueryRowContext(ctx, q, name, versionID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ModelVersion{}, fmt.Errorf("%w: version %q of model %q", models.ErrNotFound, versionID, name)
	}
	if err != nil {
		return models.ModelVersion{}, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

func (r *CHModelRegistry) ListVersions(ctx context.Context, name string) ([]models.ModelVersion, error) {
	q := fmt.Sprintf(`SELECT model_name, version_id, created_at, metrics, artifact
        FROM %s WHERE model_name = ?
        ORDER BY created_at ASC, version_id ASC`, versionsTable)
	rows, err := r.db.QueryContext(ctx, q, name)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	out := make([]models.ModelVersion, 0, 16)
	for rows.Next() {
		v, err := r.scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("list versions: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *CHModelRegistry) SetDefault(ctx context.Context, name, versionID, expectedOld string) error {
	if _, err := r.GetVersion(ctx, name, versionID); err != nil {
		return err
	}
	if expectedOld != "" {
		cur, err := r.GetDefault(ctx, name)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		if err == nil && cur.VersionID != expectedOld {
			return fmt.Errorf("%w: default of %q moved from %q to %q",
				models.ErrConflict, name, expectedOld, cur.VersionID)
		}
	}
	q := fmt.Sprintf(`INSERT INTO %s (model_name, version_id, updated_at) VALUES (?, ?, ?)`, defaultTable)
	if _, err := r.db.ExecContext(ctx, q, name, versionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("set default: %w", err)
	}
	if r.l != nil {
		r.l.Info("registry default updated",
			applogger.String("model", name),
			applogger.String("version", versionID),
			applogger.String("previous", expectedOld),
		)
	}
	return nil
}

func (r *CHModelRegistry) LogVersion(ctx context.Context, v models.ModelVersion) error {
	var n int
	countQ := fmt.Sprintf(`SELECT count() FROM %s WHERE model_name = ? AND version_id = ?`, versionsTable)
	if err := r.db.QueryRowContext(ctx, countQ, v.Name, v.VersionID).Scan(&n); err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %q already registered for model %q",
			models.ErrDuplicateVersion, v.VersionID, v.Name)
	}

	metricsJSON, err := json.Marshal(v.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s (model_name, version_id, created_at, metrics, artifact)
        VALUES (?, ?, ?, ?, ?)`, versionsTable)
	if _, err := r.db.ExecContext(ctx, q, v.Name, v.VersionID, v.CreatedAt.UTC(), string(metricsJSON), string(v.Artifact)); err != nil {
		return fmt.Errorf("log version: %w", err)
	}
	if r.l != nil {
		r.l.Info("registry version logged",
			applogger.String("model", v.Name),
			applogger.String("version", v.VersionID),
		)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CHModelRegistry) scanVersion(row rowScanner) (models.ModelVersion, error) {
	var (
		v           models.ModelVersion
		metricsJSON string
		artifact    string
	)
	if err := row.Scan(&v.Name, &v.VersionID, &v.CreatedAt, &metricsJSON, &artifact); err != nil {
		return models.ModelVersion{}, err
	}
	if metricsJSON != "" {
		if err := json.Unmarshal([]byte(metricsJSON), &v.Metrics); err != nil {
			return models.ModelVersion{}, fmt.Errorf("decode metrics: %w", err)
		}
	}
	v.Artifact = []byte(artifact)
	v.CreatedAt = v.CreatedAt.UTC()
	return v, nil
}
