package v1

import "time"

// CycleRequested is the data of TopicCycleRequested events.
type CycleRequested struct {
	ZoneID      string    `json:"zone_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// SetpointCommitted is the data of TopicSetpointCommitted events. Temperatures
// travel as decimal strings to keep their one-place precision.
type SetpointCommitted struct {
	ZoneID              string    `json:"zone_id"`
	HistoryID           int64     `json:"history_id,omitempty"`
	PreviousRecommended string    `json:"previous_recommended"`
	RecommendedTemp     string    `json:"recommended_temp"`
	CurrentTemp         string    `json:"current_temp"`
	Score               string    `json:"score"`
	VoteCount           int       `json:"vote_count"`
	CommittedAt         time.Time `json:"committed_at"`
}
