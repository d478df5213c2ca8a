package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "thermasense/contexts/building-comfort/thermostat-engine/application"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
)

// OutboxRelay publishes committed setpoint events written alongside history rows.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending rows and marks each row
// published only after the publish succeeds. It stops at the first failure so
// the next run resumes from that row.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("thermostat outbox list failed",
			"event", "thermostat_outbox_list_failed",
			"module", moduleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := resolveNow(r.Clock)
	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("thermostat outbox decode failed",
				"event", "thermostat_outbox_decode_failed",
				"module", moduleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("thermostat outbox publish failed",
				"event", "thermostat_outbox_publish_failed",
				"module", moduleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("thermostat outbox mark published failed",
				"event", "thermostat_outbox_mark_published_failed",
				"module", moduleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("thermostat outbox relay cycle completed",
		"event", "thermostat_outbox_relay_completed",
		"module", moduleName,
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
