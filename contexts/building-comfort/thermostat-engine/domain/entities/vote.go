package entities

import "time"

type VoteValue int

const (
	VoteTooCold VoteValue = -1
	VoteFine    VoteValue = 0
	VoteTooHot  VoteValue = 1
)

func (v VoteValue) Valid() bool {
	return v == VoteTooCold || v == VoteFine || v == VoteTooHot
}

func (v VoteValue) String() string {
	switch v {
	case VoteTooCold:
		return "too_cold"
	case VoteFine:
		return "fine"
	case VoteTooHot:
		return "too_hot"
	default:
		return "invalid"
	}
}

type Vote struct {
	VoteID    string
	UserID    string
	ZoneID    string
	Value     VoteValue
	CreatedAt time.Time
}

type User struct {
	UserID      string
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// VoteStats counts window votes per value for a zone.
type VoteStats struct {
	ZoneID   string
	TooCold  int
	Fine     int
	TooHot   int
	Since    time.Time
	Observed time.Time
}

func (s VoteStats) Total() int {
	return s.TooCold + s.Fine + s.TooHot
}
