package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	application "thermasense/contexts/building-comfort/thermostat-engine/application"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
	contractsv1 "thermasense/contracts/gen/events/v1"

	"github.com/shopspring/decimal"
)

const defaultTelemetryCG = "thermostat-engine-telemetry-cg"

// TelemetryConsumer mirrors committed setpoints into the time-series sink.
type TelemetryConsumer struct {
	Subscriber    ports.EventSubscriber
	Sink          ports.TelemetrySink
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c TelemetryConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultTelemetryCG
	}
	if err := c.Subscriber.Subscribe(ctx, contractsv1.TopicSetpointCommitted, group, c.handleSetpointCommitted); err != nil {
		logger.Error("telemetry consumer subscribe failed",
			"event", "thermostat_telemetry_subscribe_failed",
			"module", moduleName,
			"layer", "worker",
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (c TelemetryConsumer) handleSetpointCommitted(ctx context.Context, event ports.EventEnvelope) error {
	var payload contractsv1.SetpointCommitted
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return err
	}
	point := ports.SetpointPoint{
		ZoneID:    payload.ZoneID,
		VoteCount: payload.VoteCount,
		Timestamp: payload.CommittedAt,
	}
	var err error
	if point.CurrentTemp, err = decimal.NewFromString(payload.CurrentTemp); err != nil {
		return err
	}
	if point.RecommendedTemp, err = decimal.NewFromString(payload.RecommendedTemp); err != nil {
		return err
	}
	if point.Score, err = decimal.NewFromString(payload.Score); err != nil {
		return err
	}
	if point.Timestamp.IsZero() {
		point.Timestamp = event.OccurredAt
	}
	if err := c.Sink.WriteSetpoint(ctx, point); err != nil {
		application.ResolveLogger(c.Logger).Error("telemetry write failed",
			"event", "thermostat_telemetry_write_failed",
			"module", moduleName,
			"layer", "worker",
			"zone_id", payload.ZoneID,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}
