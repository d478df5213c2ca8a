package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "thermasense/contexts/building-comfort/thermostat-engine/application"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	domainerrors "thermasense/contexts/building-comfort/thermostat-engine/domain/errors"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
)

type SubmitVoteCommand struct {
	UserID string
	ZoneID string
	Value  entities.VoteValue
}

type SubmitVoteResult struct {
	Vote            entities.Vote
	User            entities.User
	CycleDispatched bool
}

// VoteUseCase records occupant votes and hands the zone to the deferred cycle
// pipeline without waiting on it.
type VoteUseCase struct {
	Zones      ports.ZoneRepository
	Votes      ports.VoteRepository
	Users      ports.UserRepository
	Dispatcher ports.CycleDispatcher
	Observer   ports.VoteObserver
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc VoteUseCase) SubmitVote(ctx context.Context, cmd SubmitVoteCommand) (SubmitVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	zoneID := strings.TrimSpace(cmd.ZoneID)
	if userID == "" || zoneID == "" || !cmd.Value.Valid() {
		logger.Warn("vote submission validation failed",
			"event", "thermostat_vote_validation_failed",
			"module", moduleName,
			"layer", "application",
			"user_id", userID,
			"zone_id", zoneID,
			"vote_value", int(cmd.Value),
		)
		return SubmitVoteResult{}, domainerrors.ErrInvalidVoteInput
	}

	if _, err := uc.Zones.GetZone(ctx, zoneID); err != nil {
		logger.Warn("vote submission zone lookup failed",
			"event", "thermostat_vote_zone_lookup_failed",
			"module", moduleName,
			"layer", "application",
			"zone_id", zoneID,
			"error", err.Error(),
		)
		return SubmitVoteResult{}, err
	}

	now := uc.now()
	user, err := uc.Users.TouchUser(ctx, userID, now)
	if err != nil {
		return SubmitVoteResult{}, err
	}
	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return SubmitVoteResult{}, err
	}
	vote, err := uc.Votes.AppendVote(ctx, entities.Vote{
		VoteID:    voteID,
		UserID:    userID,
		ZoneID:    zoneID,
		Value:     cmd.Value,
		CreatedAt: now,
	})
	if err != nil {
		logger.Error("vote append failed",
			"event", "thermostat_vote_append_failed",
			"module", moduleName,
			"layer", "application",
			"zone_id", zoneID,
			"user_id", userID,
			"error", err.Error(),
		)
		return SubmitVoteResult{}, err
	}
	logger.Info("vote recorded",
		"event", "thermostat_vote_recorded",
		"module", moduleName,
		"layer", "application",
		"vote_id", vote.VoteID,
		"zone_id", zoneID,
		"user_id", userID,
		"vote_value", int(vote.Value),
	)

	if uc.Observer != nil {
		uc.Observer.ObserveVote(zoneID, vote.Value)
	}

	result := SubmitVoteResult{Vote: vote, User: user}
	if uc.Dispatcher == nil {
		return result, nil
	}
	// A lost dispatch is recovered by the next periodic sweep.
	if err := uc.Dispatcher.DispatchCycle(ctx, zoneID, "vote_submitted"); err != nil {
		logger.Error("deferred cycle dispatch failed",
			"event", "thermostat_cycle_dispatch_failed",
			"module", moduleName,
			"layer", "application",
			"zone_id", zoneID,
			"vote_id", vote.VoteID,
			"error", err.Error(),
		)
		return result, nil
	}
	result.CycleDispatched = true
	return result, nil
}

func (uc VoteUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
