package workers

import (
	"encoding/json"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/ports"
)

const (
	moduleName    = "building-comfort/thermostat-engine"
	sourceService = "thermostat-engine"
)

// newThermostatEnvelope builds zone-partitioned envelopes for worker-produced events.
func newThermostatEnvelope(
	eventID string,
	eventType string,
	zoneID string,
	occurredAt time.Time,
	data any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "zone_id",
		PartitionKey:     zoneID,
		Data:             payload,
	}, nil
}

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
