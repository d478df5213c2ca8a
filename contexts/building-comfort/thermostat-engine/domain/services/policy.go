package services

import (
	"fmt"
	"time"

	domainerrors "thermasense/contexts/building-comfort/thermostat-engine/domain/errors"

	"github.com/shopspring/decimal"
)

// Policy holds every numeric knob of the recommendation engine.
type Policy struct {
	VoteWindow              time.Duration
	MinValidVotes           int
	FrequentTenure          time.Duration
	FrequentMinVotes        int
	WeightFrequent          decimal.Decimal
	WeightNormal            decimal.Decimal
	AdjustFactor            decimal.Decimal
	ColdScoreThreshold      decimal.Decimal
	ColdAdjustFactor        decimal.Decimal
	MaxDeltaPerCycle        decimal.Decimal
	CommitHysteresis        decimal.Decimal
	PhysicalConvergenceRate decimal.Decimal
	PhysicalMaxStep         decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		VoteWindow:              15 * time.Minute,
		MinValidVotes:           3,
		FrequentTenure:          7 * 24 * time.Hour,
		FrequentMinVotes:        5,
		WeightFrequent:          decimal.New(15, -1),
		WeightNormal:            decimal.NewFromInt(1),
		AdjustFactor:            decimal.New(5, -1),
		ColdScoreThreshold:      decimal.New(-5, -1),
		ColdAdjustFactor:        decimal.New(7, -1),
		MaxDeltaPerCycle:        decimal.New(8, -1),
		CommitHysteresis:        decimal.New(5, -2),
		PhysicalConvergenceRate: decimal.New(1, -1),
		PhysicalMaxStep:         decimal.New(2, -1),
	}
}

func (p Policy) Validate() error {
	switch {
	case p.VoteWindow <= 0:
		return fmt.Errorf("%w: vote window must be positive", domainerrors.ErrInvalidPolicy)
	case p.MinValidVotes < 1:
		return fmt.Errorf("%w: minimum valid votes must be at least 1", domainerrors.ErrInvalidPolicy)
	case p.FrequentTenure < 0 || p.FrequentMinVotes < 0:
		return fmt.Errorf("%w: frequent voter thresholds must not be negative", domainerrors.ErrInvalidPolicy)
	case p.WeightFrequent.IsNegative() || p.WeightNormal.IsNegative():
		return fmt.Errorf("%w: vote weights must not be negative", domainerrors.ErrInvalidPolicy)
	case !p.AdjustFactor.IsPositive() || !p.ColdAdjustFactor.IsPositive():
		return fmt.Errorf("%w: adjust factors must be positive", domainerrors.ErrInvalidPolicy)
	case !p.MaxDeltaPerCycle.IsPositive():
		return fmt.Errorf("%w: max temperature change per cycle must be positive", domainerrors.ErrInvalidPolicy)
	case p.CommitHysteresis.IsNegative():
		return fmt.Errorf("%w: commit hysteresis must not be negative", domainerrors.ErrInvalidPolicy)
	case !p.PhysicalConvergenceRate.IsPositive() || p.PhysicalConvergenceRate.GreaterThan(decimal.NewFromInt(1)):
		return fmt.Errorf("%w: physical convergence rate must be in (0, 1]", domainerrors.ErrInvalidPolicy)
	case !p.PhysicalMaxStep.IsPositive():
		return fmt.Errorf("%w: physical max step must be positive", domainerrors.ErrInvalidPolicy)
	}
	return nil
}

// clampMagnitude bounds value to [-limit, +limit].
func clampMagnitude(value decimal.Decimal, limit decimal.Decimal) decimal.Decimal {
	if value.GreaterThan(limit) {
		return limit
	}
	if value.LessThan(limit.Neg()) {
		return limit.Neg()
	}
	return value
}
