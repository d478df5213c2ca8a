package services

import (
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"

	"github.com/shopspring/decimal"
)

type Adjustment struct {
	Previous    decimal.Decimal
	Score       decimal.Decimal
	Alpha       decimal.Decimal
	RawDelta    decimal.Decimal
	Delta       decimal.Decimal
	Proposed    decimal.Decimal
	Significant bool
}

// SelectAlpha responds faster to cold sentiment: scores strictly below the
// cold threshold use the cold factor.
func SelectAlpha(score decimal.Decimal, policy Policy) decimal.Decimal {
	if score.LessThan(policy.ColdScoreThreshold) {
		return policy.ColdAdjustFactor
	}
	return policy.AdjustFactor
}

// AdjustSetpoint smooths relative to the previous recommendation, never the
// physical reading. The proposal is significant only when the clamped delta
// exceeds the commit hysteresis.
func AdjustSetpoint(previous decimal.Decimal, score decimal.Decimal, policy Policy) Adjustment {
	alpha := SelectAlpha(score, policy)
	raw := alpha.Mul(score)
	delta := clampMagnitude(raw, policy.MaxDeltaPerCycle)
	proposed := previous.Add(delta).Round(entities.TemperaturePlaces)
	return Adjustment{
		Previous:    previous,
		Score:       score,
		Alpha:       alpha,
		RawDelta:    raw,
		Delta:       delta,
		Proposed:    proposed,
		Significant: delta.Abs().GreaterThan(policy.CommitHysteresis),
	}
}
