package workers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "thermasense/contexts/building-comfort/thermostat-engine/application"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
	contractsv1 "thermasense/contracts/gen/events/v1"
)

// BusDispatcher defers cycles by publishing a zone-keyed request onto the
// event bus. Publishing returns once the bus has accepted the request.
type BusDispatcher struct {
	Publisher ports.EventPublisher
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

var _ ports.CycleDispatcher = BusDispatcher{}

func (d BusDispatcher) DispatchCycle(ctx context.Context, zoneID string, reason string) error {
	logger := application.ResolveLogger(d.Logger)
	zoneID = strings.TrimSpace(zoneID)
	now := resolveNow(d.Clock)

	eventID := ""
	if d.IDGen != nil {
		id, err := d.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		eventID = id
	}
	if eventID == "" {
		eventID = fmt.Sprintf("%s-%d", zoneID, now.UnixNano())
	}

	event, err := newThermostatEnvelope(eventID, contractsv1.TopicCycleRequested, zoneID, now, contractsv1.CycleRequested{
		ZoneID:      zoneID,
		Reason:      reason,
		RequestedAt: now,
	})
	if err != nil {
		return err
	}
	if err := d.Publisher.Publish(ctx, contractsv1.TopicCycleRequested, event); err != nil {
		return err
	}
	logger.Debug("recommendation cycle dispatched",
		"event", "thermostat_cycle_dispatched",
		"module", moduleName,
		"layer", "worker",
		"zone_id", zoneID,
		"reason", reason,
		"event_id", eventID,
	)
	return nil
}
