package actuator

import (
	"context"
	"log/slog"
	"sync"

	"thermasense/contexts/building-comfort/thermostat-engine/ports"

	"github.com/shopspring/decimal"
)

// Call is one setpoint the LoggingActuator was asked to apply.
type Call struct {
	ZoneID      string
	Temperature decimal.Decimal
}

// LoggingActuator stands in for a real HVAC gateway. It logs and records
// every call and fails with Err when set.
type LoggingActuator struct {
	mu     sync.Mutex
	calls  []Call
	err    error
	logger *slog.Logger
}

func NewLoggingActuator(logger *slog.Logger) *LoggingActuator {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingActuator{logger: logger}
}

// FailWith makes subsequent calls return err. Nil restores success.
func (a *LoggingActuator) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

func (a *LoggingActuator) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

func (a *LoggingActuator) ApplySetpoint(_ context.Context, zoneID string, temperature decimal.Decimal) error {
	a.mu.Lock()
	a.calls = append(a.calls, Call{ZoneID: zoneID, Temperature: temperature})
	err := a.err
	a.mu.Unlock()

	if err != nil {
		return err
	}
	a.logger.Info("setpoint applied",
		"event", "thermostat_actuator_applied",
		"module", "building-comfort/thermostat-engine",
		"layer", "adapter",
		"zone_id", zoneID,
		"temperature", temperature.StringFixed(1),
	)
	return nil
}

var _ ports.Actuator = (*LoggingActuator)(nil)
