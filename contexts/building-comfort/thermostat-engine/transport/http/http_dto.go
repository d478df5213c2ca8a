package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type InfoResponse struct {
	Message       string `json:"message"`
	Service       string `json:"service"`
	DocsURL       string `json:"docs_url"`
	MonitoringURL string `json:"monitoring_panel_url"`
	MetricsURL    string `json:"metrics_url"`
}

// VoteRequest is an occupant vote. VoteValue is a pointer so a missing value
// is distinguishable from 0 ("fine").
type VoteRequest struct {
	UserID    string `json:"user_id" validate:"required,uuid"`
	ZoneID    string `json:"zone_id" validate:"required,max=64"`
	VoteValue *int   `json:"vote_value" validate:"required,oneof=-1 0 1"`
}

type VoteResponse struct {
	Message         string    `json:"message"`
	VoteID          string    `json:"vote_id"`
	UserID          string    `json:"user_id"`
	ZoneID          string    `json:"zone_id"`
	VoteValue       int       `json:"vote_value"`
	CreatedAt       time.Time `json:"created_at"`
	CycleDispatched bool      `json:"cycle_dispatched"`
}

type ZoneResponse struct {
	ZoneID          string  `json:"zone_id"`
	Name            string  `json:"name"`
	CurrentTemp     float64 `json:"current_temp"`
	RecommendedTemp float64 `json:"recommended_temp"`
}

// ZoneListResponse is a bare array; dashboards pick the first zone by index.
type ZoneListResponse []ZoneResponse

type VoteStatsResponse struct {
	ZoneID        string    `json:"zone_id"`
	TooCold       int       `json:"-1"`
	Fine          int       `json:"0"`
	TooHot        int       `json:"1"`
	Total         int       `json:"total"`
	WindowMinutes int       `json:"window_minutes"`
	Since         time.Time `json:"since"`
}

type HistoryPoint struct {
	ID              int64     `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	CurrentTemp     float64   `json:"current_temp"`
	RecommendedTemp float64   `json:"recommended_temp"`
}

type ZoneHistoryItem struct {
	ZoneID  string         `json:"zone_id"`
	Name    string         `json:"name"`
	Records []HistoryPoint `json:"records"`
}

type HistoryResponse struct {
	Hours int               `json:"hours"`
	Zones []ZoneHistoryItem `json:"zones"`
}

type CycleResponse struct {
	ZoneID              string  `json:"zone_id"`
	Status              string  `json:"status"`
	VoteCount           int     `json:"vote_count"`
	FrequentVotes       int     `json:"frequent_votes"`
	Score               float64 `json:"score"`
	Alpha               float64 `json:"alpha"`
	Delta               float64 `json:"delta"`
	PreviousRecommended float64 `json:"previous_recommended"`
	Recommended         float64 `json:"recommended_temp"`
	CurrentTemp         float64 `json:"current_temp"`
	HistoryID           int64   `json:"history_id,omitempty"`
	Actuated            bool    `json:"actuated"`
	ActuationError      string  `json:"actuation_error,omitempty"`
}

type SweepResponse struct {
	Results []CycleResponse `json:"results"`
	Errors  []string        `json:"errors,omitempty"`
}
