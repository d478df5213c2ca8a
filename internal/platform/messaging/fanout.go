package messaging

import (
	"context"
	"log/slog"

	"thermasense/contexts/building-comfort/thermostat-engine/ports"
)

// Fanout publishes to a primary publisher and then to best-effort mirrors.
// Only a primary failure is returned; mirror failures are logged.
type Fanout struct {
	Primary ports.EventPublisher
	Mirrors []ports.EventPublisher
	Logger  *slog.Logger
}

func (f Fanout) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	if err := f.Primary.Publish(ctx, topic, event); err != nil {
		return err
	}
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, mirror := range f.Mirrors {
		if err := mirror.Publish(ctx, topic, event); err != nil {
			logger.Warn("event mirror publish failed",
				"event", "bus_mirror_publish_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

var _ ports.EventPublisher = Fanout{}
