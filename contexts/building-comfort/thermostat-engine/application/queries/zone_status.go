package queries

import (
	"context"
	"strings"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
)

const defaultHistoryWindow = time.Hour

// ZoneHistory is one zone's monitoring series.
type ZoneHistory struct {
	Zone    entities.Zone
	Records []entities.HistoryRecord
}

type ZoneQueries struct {
	Zones      ports.ZoneRepository
	Votes      ports.VoteRepository
	History    ports.HistoryRepository
	Clock      ports.Clock
	VoteWindow time.Duration
}

func (q ZoneQueries) ListZones(ctx context.Context) ([]entities.Zone, error) {
	return q.Zones.ListZones(ctx)
}

func (q ZoneQueries) ZoneStatus(ctx context.Context, zoneID string) (entities.Zone, error) {
	return q.Zones.GetZone(ctx, strings.TrimSpace(zoneID))
}

// VoteStats counts the votes per value that the next cycle would see.
func (q ZoneQueries) VoteStats(ctx context.Context, zoneID string) (entities.VoteStats, error) {
	zoneID = strings.TrimSpace(zoneID)
	if _, err := q.Zones.GetZone(ctx, zoneID); err != nil {
		return entities.VoteStats{}, err
	}
	now := q.now()
	since := now.Add(-q.VoteWindow)
	counts, err := q.Votes.CountVotesByValue(ctx, zoneID, since)
	if err != nil {
		return entities.VoteStats{}, err
	}
	return entities.VoteStats{
		ZoneID:   zoneID,
		TooCold:  counts[entities.VoteTooCold],
		Fine:     counts[entities.VoteFine],
		TooHot:   counts[entities.VoteTooHot],
		Since:    since,
		Observed: now,
	}, nil
}

// MonitoringHistory returns every zone with its history records newer than
// window, oldest first. A non-positive window means one hour.
func (q ZoneQueries) MonitoringHistory(ctx context.Context, window time.Duration) ([]ZoneHistory, error) {
	if window <= 0 {
		window = defaultHistoryWindow
	}
	zones, err := q.Zones.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	since := q.now().Add(-window)
	items := make([]ZoneHistory, 0, len(zones))
	for _, zone := range zones {
		records, err := q.History.ListHistory(ctx, zone.ZoneID, since)
		if err != nil {
			return nil, err
		}
		items = append(items, ZoneHistory{Zone: zone, Records: records})
	}
	return items, nil
}

func (q ZoneQueries) now() time.Time {
	if q.Clock == nil {
		return time.Now().UTC()
	}
	return q.Clock.Now().UTC()
}
