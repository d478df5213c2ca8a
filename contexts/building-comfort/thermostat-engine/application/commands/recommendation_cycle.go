package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "thermasense/contexts/building-comfort/thermostat-engine/application"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	domainerrors "thermasense/contexts/building-comfort/thermostat-engine/domain/errors"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/services"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
	contractsv1 "thermasense/contracts/gen/events/v1"
)

const moduleName = "building-comfort/thermostat-engine"

// RecommendationCycle turns the recent votes of a zone into at most one
// committed setpoint change. A cycle holds no state between runs, so cycles for
// different zones can run concurrently against the same stores.
type RecommendationCycle struct {
	Zones    ports.ZoneRepository
	Votes    ports.VoteRepository
	Users    ports.UserRepository
	Writer   ports.RecommendationWriter
	Actuator ports.Actuator
	Observer ports.CycleObserver
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Policy   services.Policy
	Logger   *slog.Logger
}

// RunCycle evaluates one zone. Unknown zones and store failures are returned as
// errors; every other outcome is reported through the result status.
func (uc RecommendationCycle) RunCycle(ctx context.Context, zoneID string) (entities.CycleResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	started := time.Now()
	zoneID = strings.TrimSpace(zoneID)
	if zoneID == "" {
		return entities.CycleResult{}, domainerrors.ErrInvalidZoneInput
	}
	now := uc.now()

	zone, err := uc.Zones.GetZone(ctx, zoneID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrZoneNotFound) {
			logger.Warn("recommendation cycle zone not found",
				"event", "thermostat_cycle_zone_not_found",
				"module", moduleName,
				"layer", "application",
				"zone_id", zoneID,
			)
		} else {
			logger.Error("recommendation cycle zone load failed",
				"event", "thermostat_cycle_zone_load_failed",
				"module", moduleName,
				"layer", "application",
				"zone_id", zoneID,
				"error", err.Error(),
			)
		}
		return entities.CycleResult{}, err
	}

	result := entities.CycleResult{
		ZoneID:              zone.ZoneID,
		PreviousRecommended: zone.RecommendedTemp,
		Recommended:         zone.RecommendedTemp,
		CurrentTemp:         zone.CurrentTemp,
		EvaluatedAt:         now,
	}
	// The simulated reading only reaches the store together with a commit.
	simulated := services.SimulatePhysicalStep(zone.CurrentTemp, zone.RecommendedTemp, uc.Policy)

	recent, err := uc.Votes.ListRecentVotes(ctx, zoneID, now.Add(-uc.Policy.VoteWindow))
	if err != nil {
		logger.Error("recommendation cycle vote load failed",
			"event", "thermostat_cycle_votes_load_failed",
			"module", moduleName,
			"layer", "application",
			"zone_id", zoneID,
			"error", err.Error(),
		)
		return entities.CycleResult{}, err
	}
	votes := services.EligibleVotes(recent, now, uc.Policy.VoteWindow)
	result.VoteCount = len(votes)
	if len(votes) < uc.Policy.MinValidVotes {
		result.Status = entities.CycleStatusInsufficientVotes
		logger.Info("recommendation cycle skipped for insufficient votes",
			"event", "thermostat_cycle_insufficient_votes",
			"module", moduleName,
			"layer", "application",
			"zone_id", zoneID,
			"vote_count", len(votes),
			"min_valid_votes", uc.Policy.MinValidVotes,
		)
		uc.observe(result, started)
		return result, nil
	}

	index := ActivityIndex{Users: uc.Users, Votes: uc.Votes, Policy: uc.Policy}
	frequent, err := index.Load(ctx, services.DistinctVoters(votes), now)
	if err != nil {
		logger.Error("recommendation cycle activity lookup failed",
			"event", "thermostat_cycle_activity_failed",
			"module", moduleName,
			"layer", "application",
			"zone_id", zoneID,
			"error", err.Error(),
		)
		return entities.CycleResult{}, err
	}

	aggregate, ok := services.AggregateVotes(votes, frequent, uc.Policy)
	result.FrequentVotes = aggregate.FrequentVotes
	if !ok {
		result.Status = entities.CycleStatusNoWeight
		logger.Info("recommendation cycle skipped for zero vote weight",
			"event", "thermostat_cycle_no_weight",
			"module", moduleName,
			"layer", "application",
			"zone_id", zoneID,
			"vote_count", len(votes),
		)
		uc.observe(result, started)
		return result, nil
	}

	adjustment := services.AdjustSetpoint(zone.RecommendedTemp, aggregate.Score, uc.Policy)
	result.Score = adjustment.Score
	result.Alpha = adjustment.Alpha
	result.RawDelta = adjustment.RawDelta
	result.Delta = adjustment.Delta
	if !adjustment.Significant {
		result.Status = entities.CycleStatusInsignificant
		logger.Debug("recommendation cycle change below hysteresis",
			"event", "thermostat_cycle_insignificant",
			"module", moduleName,
			"layer", "application",
			"zone_id", zoneID,
			"score", adjustment.Score.StringFixed(4),
			"delta", adjustment.Delta.String(),
		)
		uc.observe(result, started)
		return result, nil
	}

	eventID := uc.newEventID(ctx, zoneID, now)
	event, err := newThermostatEnvelope(eventID, contractsv1.TopicSetpointCommitted, zoneID, now, contractsv1.SetpointCommitted{
		ZoneID:              zoneID,
		PreviousRecommended: zone.RecommendedTemp.StringFixed(entities.TemperaturePlaces),
		RecommendedTemp:     adjustment.Proposed.StringFixed(entities.TemperaturePlaces),
		CurrentTemp:         simulated.StringFixed(entities.TemperaturePlaces),
		Score:               adjustment.Score.StringFixed(4),
		VoteCount:           len(votes),
		CommittedAt:         now.UTC(),
	})
	if err != nil {
		return entities.CycleResult{}, err
	}
	record, err := uc.Writer.CommitRecommendation(ctx, ports.RecommendationCommit{
		ZoneID:          zoneID,
		CurrentTemp:     simulated,
		RecommendedTemp: adjustment.Proposed,
		Timestamp:       now,
		Event:           &event,
	})
	if err != nil {
		logger.Error("recommendation commit failed",
			"event", "thermostat_cycle_commit_failed",
			"module", moduleName,
			"layer", "application",
			"zone_id", zoneID,
			"error", err.Error(),
		)
		return entities.CycleResult{}, err
	}

	result.Status = entities.CycleStatusCommitted
	result.Recommended = adjustment.Proposed
	result.CurrentTemp = simulated
	result.HistoryID = record.ID
	logger.Info("recommendation committed",
		"event", "thermostat_cycle_committed",
		"module", moduleName,
		"layer", "application",
		"zone_id", zoneID,
		"vote_count", len(votes),
		"frequent_votes", aggregate.FrequentVotes,
		"score", adjustment.Score.StringFixed(4),
		"alpha", adjustment.Alpha.String(),
		"previous_recommended", zone.RecommendedTemp.String(),
		"recommended", adjustment.Proposed.String(),
		"current_temp", simulated.String(),
		"history_id", record.ID,
	)

	uc.actuate(ctx, &result)
	uc.observe(result, started)
	return result, nil
}

// RunAllCycles evaluates every known zone in turn. A failing zone never stops
// the sweep; failures come back joined.
func (uc RecommendationCycle) RunAllCycles(ctx context.Context) ([]entities.CycleResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	zones, err := uc.Zones.ListZones(ctx)
	if err != nil {
		logger.Error("recommendation sweep zone listing failed",
			"event", "thermostat_sweep_list_failed",
			"module", moduleName,
			"layer", "application",
			"error", err.Error(),
		)
		return nil, err
	}

	results := make([]entities.CycleResult, 0, len(zones))
	var failures []error
	for _, zone := range zones {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}
		result, err := uc.RunCycle(ctx, zone.ZoneID)
		if err != nil {
			failures = append(failures, fmt.Errorf("zone %s: %w", zone.ZoneID, err))
			continue
		}
		results = append(results, result)
	}

	logger.Info("recommendation sweep completed",
		"event", "thermostat_sweep_completed",
		"module", moduleName,
		"layer", "application",
		"zone_count", len(zones),
		"evaluated_count", len(results),
		"failed_count", len(failures),
	)
	return results, errors.Join(failures...)
}

func (uc RecommendationCycle) actuate(ctx context.Context, result *entities.CycleResult) {
	if uc.Actuator == nil {
		return
	}
	logger := application.ResolveLogger(uc.Logger)
	err := uc.Actuator.ApplySetpoint(ctx, result.ZoneID, result.Recommended)
	if uc.Observer != nil {
		uc.Observer.ObserveActuation(result.ZoneID, err)
	}
	if err != nil {
		result.ActuationError = err.Error()
		logger.Error("setpoint actuation failed",
			"event", "thermostat_actuation_failed",
			"module", moduleName,
			"layer", "application",
			"zone_id", result.ZoneID,
			"recommended", result.Recommended.String(),
			"error", err.Error(),
		)
		return
	}
	result.Actuated = true
}

func (uc RecommendationCycle) observe(result entities.CycleResult, started time.Time) {
	if uc.Observer == nil {
		return
	}
	uc.Observer.ObserveCycle(result, time.Since(started))
}

func (uc RecommendationCycle) newEventID(ctx context.Context, zoneID string, now time.Time) string {
	if uc.IDGen != nil {
		if id, err := uc.IDGen.NewID(ctx); err == nil && strings.TrimSpace(id) != "" {
			return id
		}
	}
	return fmt.Sprintf("%s-%d", zoneID, now.UnixNano())
}

func (uc RecommendationCycle) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
