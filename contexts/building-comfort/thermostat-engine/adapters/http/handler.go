package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/application/commands"
	"thermasense/contexts/building-comfort/thermostat-engine/application/queries"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	httptransport "thermasense/contexts/building-comfort/thermostat-engine/transport/http"
)

type Handler struct {
	Votes      commands.VoteUseCase
	Cycles     commands.RecommendationCycle
	Queries    queries.ZoneQueries
	VoteWindow time.Duration
	Logger     *slog.Logger
}

func (h Handler) SubmitVoteHandler(ctx context.Context, req httptransport.VoteRequest) (httptransport.VoteResponse, error) {
	value := 0
	if req.VoteValue != nil {
		value = *req.VoteValue
	}
	result, err := h.Votes.SubmitVote(ctx, commands.SubmitVoteCommand{
		UserID: req.UserID,
		ZoneID: req.ZoneID,
		Value:  entities.VoteValue(value),
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		Message:         "Vote registered successfully",
		VoteID:          result.Vote.VoteID,
		UserID:          result.Vote.UserID,
		ZoneID:          result.Vote.ZoneID,
		VoteValue:       int(result.Vote.Value),
		CreatedAt:       result.Vote.CreatedAt,
		CycleDispatched: result.CycleDispatched,
	}, nil
}

func (h Handler) ListZonesHandler(ctx context.Context) (httptransport.ZoneListResponse, error) {
	zones, err := h.Queries.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	items := make(httptransport.ZoneListResponse, 0, len(zones))
	for _, zone := range zones {
		items = append(items, mapZone(zone))
	}
	return items, nil
}

func (h Handler) ZoneStatusHandler(ctx context.Context, zoneID string) (httptransport.ZoneResponse, error) {
	zone, err := h.Queries.ZoneStatus(ctx, zoneID)
	if err != nil {
		return httptransport.ZoneResponse{}, err
	}
	return mapZone(zone), nil
}

func (h Handler) VoteStatsHandler(ctx context.Context, zoneID string) (httptransport.VoteStatsResponse, error) {
	stats, err := h.Queries.VoteStats(ctx, zoneID)
	if err != nil {
		return httptransport.VoteStatsResponse{}, err
	}
	return httptransport.VoteStatsResponse{
		ZoneID:        stats.ZoneID,
		TooCold:       stats.TooCold,
		Fine:          stats.Fine,
		TooHot:        stats.TooHot,
		Total:         stats.Total(),
		WindowMinutes: int(h.VoteWindow / time.Minute),
		Since:         stats.Since,
	}, nil
}

func (h Handler) HistoryHandler(ctx context.Context, hours int) (httptransport.HistoryResponse, error) {
	if hours <= 0 {
		hours = 1
	}
	items, err := h.Queries.MonitoringHistory(ctx, time.Duration(hours)*time.Hour)
	if err != nil {
		return httptransport.HistoryResponse{}, err
	}
	zones := make([]httptransport.ZoneHistoryItem, 0, len(items))
	for _, item := range items {
		records := make([]httptransport.HistoryPoint, 0, len(item.Records))
		for _, record := range item.Records {
			records = append(records, httptransport.HistoryPoint{
				ID:              record.ID,
				Timestamp:       record.Timestamp,
				CurrentTemp:     record.CurrentTemp.InexactFloat64(),
				RecommendedTemp: record.RecommendedTemp.InexactFloat64(),
			})
		}
		zones = append(zones, httptransport.ZoneHistoryItem{
			ZoneID:  item.Zone.ZoneID,
			Name:    item.Zone.Name,
			Records: records,
		})
	}
	return httptransport.HistoryResponse{Hours: hours, Zones: zones}, nil
}

func (h Handler) RunCycleHandler(ctx context.Context, zoneID string) (httptransport.CycleResponse, error) {
	result, err := h.Cycles.RunCycle(ctx, zoneID)
	if err != nil {
		return httptransport.CycleResponse{}, err
	}
	return mapCycle(result), nil
}

// RunAllCyclesHandler reports per-zone failures in the body rather than
// failing the whole request.
func (h Handler) RunAllCyclesHandler(ctx context.Context) (httptransport.SweepResponse, error) {
	results, err := h.Cycles.RunAllCycles(ctx)
	resp := httptransport.SweepResponse{Results: make([]httptransport.CycleResponse, 0, len(results))}
	for _, result := range results {
		resp.Results = append(resp.Results, mapCycle(result))
	}
	if err != nil {
		var joined interface{ Unwrap() []error }
		if !errors.As(err, &joined) {
			return httptransport.SweepResponse{}, err
		}
		for _, item := range joined.Unwrap() {
			resp.Errors = append(resp.Errors, item.Error())
		}
	}
	return resp, nil
}

func mapZone(zone entities.Zone) httptransport.ZoneResponse {
	return httptransport.ZoneResponse{
		ZoneID:          zone.ZoneID,
		Name:            zone.Name,
		CurrentTemp:     zone.CurrentTemp.InexactFloat64(),
		RecommendedTemp: zone.RecommendedTemp.InexactFloat64(),
	}
}

func mapCycle(result entities.CycleResult) httptransport.CycleResponse {
	return httptransport.CycleResponse{
		ZoneID:              result.ZoneID,
		Status:              string(result.Status),
		VoteCount:           result.VoteCount,
		FrequentVotes:       result.FrequentVotes,
		Score:               result.Score.InexactFloat64(),
		Alpha:               result.Alpha.InexactFloat64(),
		Delta:               result.Delta.InexactFloat64(),
		PreviousRecommended: result.PreviousRecommended.InexactFloat64(),
		Recommended:         result.Recommended.InexactFloat64(),
		CurrentTemp:         result.CurrentTemp.InexactFloat64(),
		HistoryID:           result.HistoryID,
		Actuated:            result.Actuated,
		ActuationError:      result.ActuationError,
	}
}
