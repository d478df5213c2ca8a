package actuator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainerrors "thermasense/contexts/building-comfort/thermostat-engine/domain/errors"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	gobreaker "github.com/sony/gobreaker/v2"
)

const breakerName = "hvac-actuator"

// BreakerObserver receives circuit breaker state changes and call outcomes.
type BreakerObserver interface {
	ObserveBreakerState(name string, state string)
	ObserveBreakerRequest(name string, outcome string)
}

type HTTPConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type setpointRequest struct {
	Temperature string `json:"temperature"`
}

// HTTPActuator pushes setpoints to an HVAC gateway over HTTP:
// POST {base}/zones/{zone_id}/setpoint. A circuit breaker stops hammering a
// gateway that keeps failing; rejected calls surface as ErrActuatorUnavailable.
type HTTPActuator struct {
	client   *resty.Client
	breaker  *gobreaker.CircuitBreaker[struct{}]
	observer BreakerObserver
	logger   *slog.Logger
}

func NewHTTPActuator(cfg HTTPConfig, observer BreakerObserver, logger *slog.Logger) (*HTTPActuator, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("actuator base url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if token := strings.TrimSpace(cfg.Token); token != "" {
		client.SetAuthToken(token)
	}

	a := &HTTPActuator{client: client, observer: observer, logger: logger}
	a.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("actuator circuit breaker state changed",
				"event", "thermostat_actuator_breaker_state_changed",
				"module", "building-comfort/thermostat-engine",
				"layer", "adapter",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			if a.observer != nil {
				a.observer.ObserveBreakerState(name, to.String())
			}
		},
	})
	if observer != nil {
		observer.ObserveBreakerState(breakerName, gobreaker.StateClosed.String())
	}
	return a, nil
}

func (a *HTTPActuator) ApplySetpoint(ctx context.Context, zoneID string, temperature decimal.Decimal) error {
	_, err := a.breaker.Execute(func() (struct{}, error) {
		resp, err := a.client.R().
			SetContext(ctx).
			SetPathParam("zone_id", zoneID).
			SetBody(setpointRequest{Temperature: temperature.StringFixed(1)}).
			Post("/zones/{zone_id}/setpoint")
		if err != nil {
			return struct{}{}, err
		}
		if resp.IsError() {
			return struct{}{}, fmt.Errorf("actuator responded %d", resp.StatusCode())
		}
		return struct{}{}, nil
	})

	switch {
	case err == nil:
		a.observe("success")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		a.observe("rejected")
		return fmt.Errorf("%w: %v", domainerrors.ErrActuatorUnavailable, err)
	default:
		a.observe("failure")
		return fmt.Errorf("apply setpoint for zone %s: %w", zoneID, err)
	}
}

func (a *HTTPActuator) observe(outcome string) {
	if a.observer != nil {
		a.observer.ObserveBreakerRequest(breakerName, outcome)
	}
}

var _ ports.Actuator = (*HTTPActuator)(nil)
