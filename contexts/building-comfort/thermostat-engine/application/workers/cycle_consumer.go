package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	application "thermasense/contexts/building-comfort/thermostat-engine/application"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
	contractsv1 "thermasense/contracts/gen/events/v1"
)

const defaultCycleCG = "thermostat-engine-cycle-cg"

// CycleConsumer runs deferred recommendation cycles. The bus delivers one
// zone's requests in publish order.
type CycleConsumer struct {
	Subscriber    ports.EventSubscriber
	Cycles        ports.CycleRunner
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c CycleConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultCycleCG
	}
	if err := c.Subscriber.Subscribe(ctx, contractsv1.TopicCycleRequested, group, c.handleCycleRequested); err != nil {
		logger.Error("cycle consumer subscribe failed",
			"event", "thermostat_cycle_consumer_subscribe_failed",
			"module", moduleName,
			"layer", "worker",
			"topic", contractsv1.TopicCycleRequested,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("cycle consumer subscription active",
		"event", "thermostat_cycle_consumer_started",
		"module", moduleName,
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c CycleConsumer) handleCycleRequested(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	var payload contractsv1.CycleRequested
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("cycle request decode failed",
			"event", "thermostat_cycle_request_decode_failed",
			"module", moduleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	zoneID := strings.TrimSpace(payload.ZoneID)
	if zoneID == "" {
		zoneID = event.PartitionKey
	}
	result, err := c.Cycles.RunCycle(ctx, zoneID)
	if err != nil {
		return err
	}
	logger.Debug("deferred cycle finished",
		"event", "thermostat_deferred_cycle_finished",
		"module", moduleName,
		"layer", "worker",
		"zone_id", zoneID,
		"status", string(result.Status),
		"event_id", event.EventID,
	)
	return nil
}
