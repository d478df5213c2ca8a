package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical, versioned event envelope shared by the API and
// worker runtimes. Fields must stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

const (
	// TopicCycleRequested carries deferred recommendation-cycle requests,
	// partitioned by zone_id.
	TopicCycleRequested = "thermostat.cycle_requested"
	// TopicSetpointCommitted carries committed setpoint changes, partitioned
	// by zone_id.
	TopicSetpointCommitted = "thermostat.setpoint_committed"
)
