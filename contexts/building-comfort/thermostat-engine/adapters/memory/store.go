package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	domainerrors "thermasense/contexts/building-comfort/thermostat-engine/domain/errors"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// LookupStats counts batched activity lookups served by the store.
type LookupStats struct {
	GetUsers          int
	CountVotesPerUser int
}

type Store struct {
	mu sync.RWMutex

	zones         map[string]entities.Zone
	users         map[string]entities.User
	votes         []entities.Vote
	history       []entities.HistoryRecord
	outbox        map[string]outboxRecord
	nextHistoryID int64
	lookups       LookupStats
	now           time.Time
}

func NewStore(seed []entities.Zone) *Store {
	zones := make(map[string]entities.Zone, len(seed))
	for _, zone := range seed {
		zones[strings.TrimSpace(zone.ZoneID)] = zone
	}
	return &Store{
		zones:  zones,
		users:  make(map[string]entities.User),
		outbox: make(map[string]outboxRecord),
	}
}

// SetNow pins the store clock. A zero time restores the wall clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now.UTC()
}

func (s *Store) SetUser(user entities.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.TrimSpace(user.UserID)] = user
}

func (s *Store) SetZone(zone entities.Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[strings.TrimSpace(zone.ZoneID)] = zone
}

func (s *Store) Lookups() LookupStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookups
}

func (s *Store) GetZone(_ context.Context, zoneID string) (entities.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zone, ok := s.zones[strings.TrimSpace(zoneID)]
	if !ok {
		return entities.Zone{}, domainerrors.ErrZoneNotFound
	}
	return zone, nil
}

func (s *Store) ListZones(_ context.Context) ([]entities.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Zone, 0, len(s.zones))
	for _, zone := range s.zones {
		items = append(items, zone)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ZoneID < items[j].ZoneID
	})
	return items, nil
}

func (s *Store) CreateZone(_ context.Context, zone entities.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(zone.ZoneID)
	if _, ok := s.zones[key]; ok {
		return domainerrors.ErrConflict
	}
	s.zones[key] = zone
	return nil
}

func (s *Store) RenameZone(_ context.Context, zoneID string, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(zoneID)
	zone, ok := s.zones[key]
	if !ok {
		return domainerrors.ErrZoneNotFound
	}
	zone.Name = name
	s.zones[key] = zone
	return nil
}

func (s *Store) AppendVote(_ context.Context, vote entities.Vote) (entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.zones[vote.ZoneID]; !ok {
		return entities.Vote{}, domainerrors.ErrZoneNotFound
	}
	if strings.TrimSpace(vote.VoteID) == "" {
		vote.VoteID = uuid.NewString()
	}
	vote.CreatedAt = vote.CreatedAt.UTC()
	s.votes = append(s.votes, vote)
	return vote, nil
}

func (s *Store) ListRecentVotes(_ context.Context, zoneID string, since time.Time) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zoneID = strings.TrimSpace(zoneID)
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.ZoneID != zoneID || vote.CreatedAt.Before(since) {
			continue
		}
		items = append(items, vote)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CountVotesPerUser(_ context.Context, userIDs []string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups.CountVotesPerUser++
	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[strings.TrimSpace(id)] = struct{}{}
	}
	counts := make(map[string]int, len(userIDs))
	for _, vote := range s.votes {
		if _, ok := wanted[vote.UserID]; ok {
			counts[vote.UserID]++
		}
	}
	return counts, nil
}

func (s *Store) CountVotesByValue(_ context.Context, zoneID string, since time.Time) (map[entities.VoteValue]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zoneID = strings.TrimSpace(zoneID)
	counts := map[entities.VoteValue]int{}
	for _, vote := range s.votes {
		if vote.ZoneID != zoneID || vote.CreatedAt.Before(since) {
			continue
		}
		counts[vote.Value]++
	}
	return counts, nil
}

func (s *Store) GetUsers(_ context.Context, userIDs []string) (map[string]entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups.GetUsers++
	users := make(map[string]entities.User, len(userIDs))
	for _, id := range userIDs {
		if user, ok := s.users[strings.TrimSpace(id)]; ok {
			users[user.UserID] = user
		}
	}
	return users, nil
}

func (s *Store) TouchUser(_ context.Context, userID string, seenAt time.Time) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(userID)
	seenAt = seenAt.UTC()
	user, ok := s.users[key]
	if !ok {
		user = entities.User{UserID: key, FirstSeenAt: seenAt}
	}
	user.LastSeenAt = seenAt
	s.users[key] = user
	return user, nil
}

func (s *Store) ListHistory(_ context.Context, zoneID string, since time.Time) ([]entities.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zoneID = strings.TrimSpace(zoneID)
	items := make([]entities.HistoryRecord, 0)
	for _, record := range s.history {
		if record.ZoneID != zoneID || record.Timestamp.Before(since) {
			continue
		}
		items = append(items, record)
	}
	return items, nil
}

// CommitRecommendation applies the zone update, the history row and the
// outbox event under one lock so readers never observe a partial commit.
func (s *Store) CommitRecommendation(_ context.Context, commit ports.RecommendationCommit) (entities.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(commit.ZoneID)
	zone, ok := s.zones[key]
	if !ok {
		return entities.HistoryRecord{}, domainerrors.ErrZoneNotFound
	}
	var outboxRow *outboxRecord
	if commit.Event != nil {
		payload, err := json.Marshal(commit.Event)
		if err != nil {
			return entities.HistoryRecord{}, err
		}
		outboxID := strings.TrimSpace(commit.Event.EventID)
		if outboxID == "" {
			outboxID = uuid.NewString()
		}
		if _, exists := s.outbox[outboxID]; exists {
			return entities.HistoryRecord{}, domainerrors.ErrConflict
		}
		outboxRow = &outboxRecord{message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    commit.Event.EventType,
			PartitionKey: commit.Event.PartitionKey,
			Payload:      payload,
			CreatedAt:    commit.Timestamp.UTC(),
		}}
	}

	zone.CurrentTemp = commit.CurrentTemp.Round(entities.TemperaturePlaces)
	zone.RecommendedTemp = commit.RecommendedTemp.Round(entities.TemperaturePlaces)
	s.zones[key] = zone

	s.nextHistoryID++
	record := entities.HistoryRecord{
		ID:              s.nextHistoryID,
		ZoneID:          key,
		CurrentTemp:     zone.CurrentTemp,
		RecommendedTemp: zone.RecommendedTemp,
		Timestamp:       commit.Timestamp.UTC(),
	}
	s.history = append(s.history, record)
	if outboxRow != nil {
		s.outbox[outboxRow.message.OutboxID] = *outboxRow
	}
	return record, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.now.IsZero() {
		return s.now
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.ZoneRepository       = (*Store)(nil)
	_ ports.VoteRepository       = (*Store)(nil)
	_ ports.UserRepository       = (*Store)(nil)
	_ ports.HistoryRepository    = (*Store)(nil)
	_ ports.RecommendationWriter = (*Store)(nil)
	_ ports.OutboxRepository     = (*Store)(nil)
	_ ports.Clock                = (*Store)(nil)
	_ ports.IDGenerator          = (*Store)(nil)
)
