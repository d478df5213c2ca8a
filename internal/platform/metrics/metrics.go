package metrics

import (
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. It implements the cycle
// observer and the actuator breaker observer.
type Metrics struct {
	CyclesTotal         *prometheus.CounterVec
	CycleDuration       *prometheus.HistogramVec
	RecommendedTemp     *prometheus.GaugeVec
	VoteScore           *prometheus.GaugeVec
	ActuationsTotal     *prometheus.CounterVec
	VotesTotal          *prometheus.CounterVec
	BreakerState        *prometheus.GaugeVec
	BreakerRequests     *prometheus.CounterVec
	BreakerTransitions  *prometheus.CounterVec
	OutboxRelayFailures prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		CyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thermostat_cycles_total",
				Help: "Recommendation cycles by outcome",
			},
			[]string{"zone_id", "status"},
		),
		CycleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "thermostat_cycle_duration_seconds",
				Help:    "Duration of recommendation cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		RecommendedTemp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "thermostat_recommended_temperature_celsius",
				Help: "Last committed recommended temperature per zone",
			},
			[]string{"zone_id"},
		),
		VoteScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "thermostat_vote_score",
				Help: "Weighted sentiment score of the last committed cycle per zone",
			},
			[]string{"zone_id"},
		),
		ActuationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thermostat_actuations_total",
				Help: "Setpoint pushes to the HVAC actuator by result",
			},
			[]string{"zone_id", "result"},
		),
		VotesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thermostat_votes_total",
				Help: "Accepted occupant votes",
			},
			[]string{"zone_id", "value"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		BreakerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "circuit_breaker_requests_total",
				Help: "Total number of requests through circuit breaker",
			},
			[]string{"name", "result"},
		),
		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "circuit_breaker_state_transitions_total",
				Help: "Total number of circuit breaker state transitions",
			},
			[]string{"name", "to_state"},
		),
		OutboxRelayFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "thermostat_outbox_relay_failures_total",
				Help: "Outbox relay runs that stopped on an error",
			},
		),
	}
}

func (m *Metrics) ObserveCycle(result entities.CycleResult, duration time.Duration) {
	status := string(result.Status)
	m.CyclesTotal.WithLabelValues(result.ZoneID, status).Inc()
	m.CycleDuration.WithLabelValues(status).Observe(duration.Seconds())
	if result.Committed() {
		m.RecommendedTemp.WithLabelValues(result.ZoneID).Set(result.Recommended.InexactFloat64())
		m.VoteScore.WithLabelValues(result.ZoneID).Set(result.Score.InexactFloat64())
	}
}

func (m *Metrics) ObserveActuation(zoneID string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ActuationsTotal.WithLabelValues(zoneID, result).Inc()
}

func (m *Metrics) ObserveVote(zoneID string, value entities.VoteValue) {
	m.VotesTotal.WithLabelValues(zoneID, value.String()).Inc()
}

func (m *Metrics) ObserveBreakerState(name string, state string) {
	m.BreakerTransitions.WithLabelValues(name, state).Inc()
	switch state {
	case "closed":
		m.BreakerState.WithLabelValues(name).Set(0)
	case "half-open":
		m.BreakerState.WithLabelValues(name).Set(1)
	case "open":
		m.BreakerState.WithLabelValues(name).Set(2)
	}
}

func (m *Metrics) ObserveBreakerRequest(name string, outcome string) {
	m.BreakerRequests.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) ObserveOutboxFailure() {
	m.OutboxRelayFailures.Inc()
}
