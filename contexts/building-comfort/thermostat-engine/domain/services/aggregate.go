package services

import (
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"

	"github.com/shopspring/decimal"
)

type Aggregate struct {
	VoteCount     int
	FrequentVotes int
	WeightedSum   decimal.Decimal
	TotalWeight   decimal.Decimal
	Score         decimal.Decimal
}

// EligibleVotes keeps votes created at or after now minus the validity window.
func EligibleVotes(votes []entities.Vote, now time.Time, window time.Duration) []entities.Vote {
	cutoff := now.Add(-window)
	eligible := make([]entities.Vote, 0, len(votes))
	for _, vote := range votes {
		if vote.CreatedAt.Before(cutoff) {
			continue
		}
		eligible = append(eligible, vote)
	}
	return eligible
}

// AggregateVotes computes the weighted mean vote. The boolean is false when the
// total weight is zero and no score can be formed.
func AggregateVotes(votes []entities.Vote, frequent map[string]bool, policy Policy) (Aggregate, bool) {
	result := Aggregate{
		VoteCount:   len(votes),
		WeightedSum: decimal.Zero,
		TotalWeight: decimal.Zero,
		Score:       decimal.Zero,
	}
	for _, vote := range votes {
		weight := policy.WeightNormal
		if frequent[vote.UserID] {
			weight = policy.WeightFrequent
			result.FrequentVotes++
		}
		result.WeightedSum = result.WeightedSum.Add(decimal.NewFromInt(int64(vote.Value)).Mul(weight))
		result.TotalWeight = result.TotalWeight.Add(weight)
	}
	if result.TotalWeight.IsZero() {
		return result, false
	}
	result.Score = result.WeightedSum.Div(result.TotalWeight)
	return result, true
}
