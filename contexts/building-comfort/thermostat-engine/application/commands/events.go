package commands

import (
	"encoding/json"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/ports"
)

const sourceService = "thermostat-engine"

func newThermostatEnvelope(
	eventID string,
	eventType string,
	zoneID string,
	occurredAt time.Time,
	data any,
) (ports.EventEnvelope, error) {
	// Every thermostat event is zone-scoped so per-zone consumers see them in order.
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
