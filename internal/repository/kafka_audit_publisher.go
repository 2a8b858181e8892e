package repository

import (
	"context"
	"time"

	"ShopIntent/internal/domain/models"
	pkgkafka "ShopIntent/pkg/kafka"
	applogger "ShopIntent/pkg/logger"
)

// KafkaAuditPublisher emits lifecycle events (trainings, promotion
// decisions) to a Kafka audit topic. Publishing is best-effort for the
// pipelines: failures are surfaced to the caller, who logs and moves on,
// because the registry already holds the authoritative state.
type KafkaAuditPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaAuditPublisher(producer *pkgkafka.Producer, topic string, l *applogger.Logger) *KafkaAuditPublisher {
	return &KafkaAuditPublisher{producer: producer, topic: topic, l: l}
}

type auditEvent struct {
	Kind       string                    `json:"kind"`
	OccurredAt time.Time                 `json:"occurred_at"`
	Decision   *models.PromotionDecision `json:"decision,omitempty"`
	Version    *auditVersion             `json:"version,omitempty"`
}

type auditVersion struct {
	Name      string             `json:"name"`
	VersionID string             `json:"version_id"`
	CreatedAt time.Time          `json:"created_at"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

func (p *KafkaAuditPublisher) PublishDecision(ctx context.Context, d models.PromotionDecision) error {
	ev := auditEvent{Kind: "promotion_decision", OccurredAt: time.Now().UTC(), Decision: &d}
	return p.producer.Publish(ctx, p.topic, []byte(d.ModelName), ev)
}

func (p *KafkaAuditPublisher) PublishTraining(ctx context.Context, v models.ModelVersion) error {
	ev := auditEvent{
		Kind:       "model_trained",
		OccurredAt: time.Now().UTC(),
		Version: &auditVersion{
			Name:      v.Name,
			VersionID: v.VersionID,
			CreatedAt: v.CreatedAt,
			Metrics:   v.Metrics,
		},
	}
	return p.producer.Publish(ctx, p.topic, []byte(v.Name), ev)
}

func (p *KafkaAuditPublisher) Close() error {
	return p.producer.Close()
}

// NopAuditPublisher discards events; used when Kafka is disabled.
type NopAuditPublisher struct{}

func (NopAuditPublisher) PublishDecision(context.Context, models.PromotionDecision) error { return nil }
func (NopAuditPublisher) PublishTraining(context.Context, models.ModelVersion) error      { return nil }
func (NopAuditPublisher) Close() error                                                    { return nil }
