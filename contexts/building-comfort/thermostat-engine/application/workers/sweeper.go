package workers

import (
	"context"
	"log/slog"

	application "thermasense/contexts/building-comfort/thermostat-engine/application"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
)

// Sweeper re-evaluates every zone. Zone failures are logged and left for the
// next sweep rather than retried.
type Sweeper struct {
	Cycles ports.CycleRunner
	Logger *slog.Logger
}

func (s Sweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	results, err := s.Cycles.RunAllCycles(ctx)
	committed := 0
	for _, result := range results {
		if result.Status == entities.CycleStatusCommitted {
			committed++
		}
	}
	if err != nil {
		logger.Warn("zone sweep finished with failures",
			"event", "thermostat_sweep_partial_failure",
			"module", moduleName,
			"layer", "worker",
			"evaluated_count", len(results),
			"committed_count", committed,
			"error", err.Error(),
		)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	logger.Debug("zone sweep finished",
		"event", "thermostat_sweep_finished",
		"module", moduleName,
		"layer", "worker",
		"evaluated_count", len(results),
		"committed_count", committed,
	)
	return nil
}
