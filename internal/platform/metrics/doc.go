// Package metrics exposes the Prometheus collectors for recommendation cycles,
// votes, actuation and the actuator circuit breaker.
package metrics
