// Package thermostatengine implements the zone setpoint recommendation engine
// inside the building-comfort context.
//
// The module owns vote intake, the recommendation cycle (physical simulation,
// vote windowing, activity weighting, aggregation, bounded smoothing and the
// hysteresis gate), monitoring reads, and the workers that run deferred and
// periodic cycles. Infrastructure stays behind ports and adapters.
package thermostatengine
