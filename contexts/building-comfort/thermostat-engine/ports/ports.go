package ports

import (
	"context"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	contractsv1 "thermasense/contracts/gen/events/v1"

	"github.com/shopspring/decimal"
)

type ZoneRepository interface {
	GetZone(ctx context.Context, zoneID string) (entities.Zone, error)
	ListZones(ctx context.Context) ([]entities.Zone, error)
	CreateZone(ctx context.Context, zone entities.Zone) error
	RenameZone(ctx context.Context, zoneID string, name string) error
}

type VoteRepository interface {
	AppendVote(ctx context.Context, vote entities.Vote) (entities.Vote, error)
	ListRecentVotes(ctx context.Context, zoneID string, since time.Time) ([]entities.Vote, error)
	// CountVotesPerUser returns lifetime vote counts for all ids in one lookup.
	// Ids without votes may be omitted from the map.
	CountVotesPerUser(ctx context.Context, userIDs []string) (map[string]int, error)
	CountVotesByValue(ctx context.Context, zoneID string, since time.Time) (map[entities.VoteValue]int, error)
}

type UserRepository interface {
	// GetUsers fetches all known users among userIDs in one lookup.
	GetUsers(ctx context.Context, userIDs []string) (map[string]entities.User, error)
	// TouchUser creates the user on first sight and bumps LastSeenAt afterwards.
	TouchUser(ctx context.Context, userID string, seenAt time.Time) (entities.User, error)
}

type HistoryRepository interface {
	ListHistory(ctx context.Context, zoneID string, since time.Time) ([]entities.HistoryRecord, error)
}

// RecommendationCommit is everything a committed cycle writes atomically.
type RecommendationCommit struct {
	ZoneID          string
	CurrentTemp     decimal.Decimal
	RecommendedTemp decimal.Decimal
	Timestamp       time.Time
	Event           *EventEnvelope
}

type RecommendationWriter interface {
	CommitRecommendation(ctx context.Context, commit RecommendationCommit) (entities.HistoryRecord, error)
}

type Actuator interface {
	ApplySetpoint(ctx context.Context, zoneID string, temperature decimal.Decimal) error
}

type CycleDispatcher interface {
	DispatchCycle(ctx context.Context, zoneID string, reason string) error
}

type CycleObserver interface {
	ObserveCycle(result entities.CycleResult, duration time.Duration)
	ObserveActuation(zoneID string, err error)
}

type VoteObserver interface {
	ObserveVote(zoneID string, value entities.VoteValue)
}

type SetpointPoint struct {
	ZoneID          string
	CurrentTemp     decimal.Decimal
	RecommendedTemp decimal.Decimal
	Score           decimal.Decimal
	VoteCount       int
	Timestamp       time.Time
}

type TelemetrySink interface {
	WriteSetpoint(ctx context.Context, point SetpointPoint) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type CycleRunner interface {
	RunCycle(ctx context.Context, zoneID string) (entities.CycleResult, error)
	RunAllCycles(ctx context.Context) ([]entities.CycleResult, error)
}
