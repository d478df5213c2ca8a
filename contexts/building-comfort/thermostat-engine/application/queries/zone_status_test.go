package queries

import (
	"context"
	"testing"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/adapters/memory"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	domainerrors "thermasense/contexts/building-comfort/thermostat-engine/domain/errors"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var queryNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newQueryStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore([]entities.Zone{
		entities.NewZone("office_a", "Office A", decimal.RequireFromString("24.5")),
		entities.NewZone("library_b", "Library B", decimal.RequireFromString("26.0")),
	})
	store.SetNow(queryNow)
	return store
}

func newQueries(store *memory.Store) ZoneQueries {
	return ZoneQueries{Zones: store, Votes: store, History: store, Clock: store, VoteWindow: 15 * time.Minute}
}

func TestVoteStatsCountsOnlyWindowVotes(t *testing.T) {
	store := newQueryStore(t)
	votes := []struct {
		value entities.VoteValue
		age   time.Duration
	}{
		{entities.VoteTooCold, time.Minute},
		{entities.VoteTooCold, 5 * time.Minute},
		{entities.VoteTooHot, 15 * time.Minute},
		{entities.VoteFine, 20 * time.Minute},
	}
	for _, v := range votes {
		_, err := store.AppendVote(context.Background(), entities.Vote{
			UserID: "u", ZoneID: "office_a", Value: v.value, CreatedAt: queryNow.Add(-v.age),
		})
		require.NoError(t, err)
	}

	stats, err := newQueries(store).VoteStats(context.Background(), "office_a")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TooCold)
	assert.Equal(t, 0, stats.Fine)
	assert.Equal(t, 1, stats.TooHot)
	assert.Equal(t, 3, stats.Total())
	assert.Equal(t, queryNow.Add(-15*time.Minute), stats.Since)
}

func TestVoteStatsUnknownZone(t *testing.T) {
	_, err := newQueries(newQueryStore(t)).VoteStats(context.Background(), "attic")
	assert.ErrorIs(t, err, domainerrors.ErrZoneNotFound)
}

func TestZoneStatusTrimsID(t *testing.T) {
	zone, err := newQueries(newQueryStore(t)).ZoneStatus(context.Background(), " library_b ")
	require.NoError(t, err)
	assert.Equal(t, "Library B", zone.Name)
}

func TestMonitoringHistoryFiltersByWindow(t *testing.T) {
	store := newQueryStore(t)
	for _, age := range []time.Duration{3 * time.Hour, 30 * time.Minute} {
		_, err := store.CommitRecommendation(context.Background(), ports.RecommendationCommit{
			ZoneID:          "office_a",
			CurrentTemp:     decimal.RequireFromString("24.3"),
			RecommendedTemp: decimal.RequireFromString("24.1"),
			Timestamp:       queryNow.Add(-age),
		})
		require.NoError(t, err)
	}
	q := newQueries(store)

	items, err := q.MonitoringHistory(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "library_b", items[0].Zone.ZoneID)
	assert.Empty(t, items[0].Records)
	assert.Equal(t, "office_a", items[1].Zone.ZoneID)
	require.Len(t, items[1].Records, 1)
	assert.Equal(t, queryNow.Add(-30*time.Minute), items[1].Records[0].Timestamp)

	items, err = q.MonitoringHistory(context.Background(), 4*time.Hour)
	require.NoError(t, err)
	assert.Len(t, items[1].Records, 2)
}
