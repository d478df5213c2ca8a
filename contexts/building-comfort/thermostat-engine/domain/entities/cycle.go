package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// CycleStatus is the terminal state reached by one recommendation cycle.
type CycleStatus string

const (
	CycleStatusCommitted         CycleStatus = "committed"
	CycleStatusInsufficientVotes CycleStatus = "insufficient_votes"
	CycleStatusNoWeight          CycleStatus = "no_weight"
	CycleStatusInsignificant     CycleStatus = "insignificant_change"
)

// CycleResult describes what a cycle observed and decided. Fields past the
// terminal state are left zero.
type CycleResult struct {
	ZoneID              string
	Status              CycleStatus
	VoteCount           int
	FrequentVotes       int
	Score               decimal.Decimal
	Alpha               decimal.Decimal
	RawDelta            decimal.Decimal
	Delta               decimal.Decimal
	PreviousRecommended decimal.Decimal
	Recommended         decimal.Decimal
	CurrentTemp         decimal.Decimal
	HistoryID           int64
	Actuated            bool
	ActuationError      string
	EvaluatedAt         time.Time
}

func (r CycleResult) Committed() bool {
	return r.Status == CycleStatusCommitted
}
