package usecase

import (
	"context"
	"fmt"
	"time"

	"ShopIntent/internal/domain/models"
	domrepo "ShopIntent/internal/domain/repository"
	applogger "ShopIntent/pkg/logger"
)

// ModelAdmin exposes the registry operations served over the API:
// inspection plus manual rollback of the serving version.
type ModelAdmin struct {
	registry domrepo.ModelRegistry
	audit    domrepo.AuditPublisher
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

func NewModelAdmin(
	registry domrepo.ModelRegistry,
	audit domrepo.AuditPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *ModelAdmin {
	return &ModelAdmin{registry: registry, audit: audit, metrics: metrics, l: l}
}

// VersionInfo is a registry version without its artifact payload.
type VersionInfo struct {
	Name      string             `json:"name"`
	VersionID string             `json:"version_id"`
	CreatedAt string             `json:"created_at"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	IsDefault bool               `json:"is_default"`
}

// ListVersions returns every version of name, flagging the current default.
func (a *ModelAdmin) ListVersions(ctx context.Context, name string) ([]VersionInfo, error) {
	versions, err := a.registry.ListVersions(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: model %q has no versions", models.ErrNotFound, name)
	}

	defaultID := ""
	if def, err := a.registry.GetDefault(ctx, name); err == nil {
		defaultID = def.VersionID
	}

	out := make([]VersionInfo, len(versions))
	for i, v := range versions {
		out[i] = VersionInfo{
			Name:      v.Name,
			VersionID: v.VersionID,
			CreatedAt: v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			Metrics:   v.Metrics,
			IsDefault: v.VersionID == defaultID,
		}
	}
	return out, nil
}

// Default returns the serving version of name.
func (a *ModelAdmin) Default(ctx context.Context, name string) (models.ModelVersion, error) {
	return a.registry.GetDefault(ctx, name)
}

// Latest returns the most recently trained version of name.
func (a *ModelAdmin) Latest(ctx context.Context, name string) (models.ModelVersion, error) {
	return a.registry.GetLatest(ctx, name)
}

// Rollback forces the default pointer to an existing version, bypassing
// the comparison pipeline. Used to back out a bad promotion.
func (a *ModelAdmin) Rollback(ctx context.Context, name, versionID string) error {
	target, err := a.registry.GetVersion(ctx, name, versionID)
	if err != nil {
		return err
	}
	if err := a.registry.SetDefault(ctx, name, versionID, ""); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}

	decision := models.PromotionDecision{
		ModelName:      name,
		Promote:        true,
		WinningVersion: target.VersionID,
		MetricUsed:     "manual_rollback",
		DecidedAt:      time.Now().UTC(),
	}
	if err := a.audit.PublishDecision(ctx, decision); err != nil && a.l != nil {
		a.l.Warn("audit publish failed", applogger.Error(err))
	}

	a.metrics.RecordPipelineRun("rollback", "success")
	if a.l != nil {
		a.l.Info("manual rollback applied",
			applogger.String("model", name),
			applogger.String("version", versionID),
		)
	}
	return nil
}
