package alerts

import (
	"context"
	"encoding/json"

	"crowsnest/internal/threat"
	"crowsnest/pkg/kafka"
	"crowsnest/pkg/logging"
)

const alertTopic = "threat_alerts"

// Publisher fans persisted alerts out to Kafka for downstream consumers
// (notification services, SIEM ingestion). Nil-safe: a nil Publisher or one
// without a producer drops events silently so the pipeline runs without a
// broker.
type Publisher struct {
	producer *kafka.Producer
	logger   logging.Logger
}

func NewPublisher(producer *kafka.Producer, logger logging.Logger) *Publisher {
	return &Publisher{producer: producer, logger: logger}
}

// Publish sends the alert to the threat_alerts topic keyed by alert ID.
// Failures are logged, never propagated: the alert is already persisted and
// broker trouble must not fail a scan cycle.
func (p *Publisher) Publish(ctx context.Context, alert threat.Alert) {
	if p == nil || p.producer == nil {
		return
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		p.logger.WithError(err).Error("Failed to encode alert for publish")
		return
	}

	headers := map[string]string{
		"platform":     string(alert.Platform),
		"threat_level": string(alert.ThreatLevel),
	}
	if err := p.producer.ProduceMessage(ctx, alertTopic, []byte(alert.ID), payload, headers); err != nil {
		p.logger.WithError(err).WithFields(logging.Fields{
			"alert_id": alert.ID,
			"topic":    alertTopic,
		}).Warn("Failed to publish alert")
		return
	}

	p.logger.WithField("alert_id", alert.ID).Debug("Alert published")
}
