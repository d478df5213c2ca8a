package influx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/ports"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const measurement = "zone_setpoint"

// PointWriter is the slice of api.WriteAPIBlocking the sink needs.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Sink stores one point per committed setpoint, tagged by zone.
type Sink struct {
	writer PointWriter
	logger *slog.Logger
}

func NewSink(writer PointWriter, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{writer: writer, logger: logger}
}

func (s *Sink) WriteSetpoint(ctx context.Context, point ports.SetpointPoint) error {
	timestamp := point.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	p := influxdb2.NewPoint(
		measurement,
		map[string]string{"zone_id": point.ZoneID},
		map[string]interface{}{
			"current_temp":     point.CurrentTemp.InexactFloat64(),
			"recommended_temp": point.RecommendedTemp.InexactFloat64(),
			"score":            point.Score.InexactFloat64(),
			"vote_count":       point.VoteCount,
		},
		timestamp,
	)
	if err := s.writer.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write setpoint point: %w", err)
	}
	s.logger.Debug("setpoint telemetry written",
		"event", "thermostat_telemetry_written",
		"module", "building-comfort/thermostat-engine",
		"layer", "adapter",
		"zone_id", point.ZoneID,
	)
	return nil
}

var _ ports.TelemetrySink = (*Sink)(nil)
