package services

import (
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"

	"github.com/shopspring/decimal"
)

// SimulatePhysicalStep moves the simulated reading one bounded step toward the
// recommendation. The result is kept at display precision and never moves
// further than the policy max step. A step that rounds away to nothing leaves
// the reading where it is, so the approach settles a few tenths short of the
// setpoint.
func SimulatePhysicalStep(current decimal.Decimal, recommended decimal.Decimal, policy Policy) decimal.Decimal {
	current = current.Round(entities.TemperaturePlaces)
	recommended = recommended.Round(entities.TemperaturePlaces)
	if current.Equal(recommended) {
		return current
	}

	diff := recommended.Sub(current)
	step := clampMagnitude(diff.Mul(policy.PhysicalConvergenceRate), policy.PhysicalMaxStep)
	next := current.Add(step).Round(entities.TemperaturePlaces)
	if next.Sub(current).Abs().GreaterThan(policy.PhysicalMaxStep) {
		next = current.Add(step.Truncate(entities.TemperaturePlaces))
	}
	return next
}
