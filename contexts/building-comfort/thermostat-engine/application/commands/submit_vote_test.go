package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/adapters/memory"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	domainerrors "thermasense/contexts/building-comfort/thermostat-engine/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	zones []string
	err   error
}

func (d *recordingDispatcher) DispatchCycle(_ context.Context, zoneID string, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.zones = append(d.zones, zoneID)
	return d.err
}

func newVoteUseCase(store *memory.Store, dispatcher *recordingDispatcher) VoteUseCase {
	uc := VoteUseCase{
		Zones: store,
		Votes: store,
		Users: store,
		Clock: store,
		IDGen: store,
	}
	if dispatcher != nil {
		uc.Dispatcher = dispatcher
	}
	return uc
}

func TestSubmitVoteRecordsVoteAndDispatchesCycle(t *testing.T) {
	store := memory.NewStore([]entities.Zone{officeZone()})
	store.SetNow(cycleNow)
	dispatcher := &recordingDispatcher{}
	uc := newVoteUseCase(store, dispatcher)

	result, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		UserID: " 6f1c2a8e-7d8b-4b1a-9a3e-1f2d3c4b5a69 ",
		ZoneID: "office_a",
		Value:  entities.VoteTooCold,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Vote.VoteID)
	assert.Equal(t, "6f1c2a8e-7d8b-4b1a-9a3e-1f2d3c4b5a69", result.Vote.UserID)
	assert.Equal(t, cycleNow, result.Vote.CreatedAt)
	assert.Equal(t, cycleNow, result.User.FirstSeenAt)
	assert.Equal(t, cycleNow, result.User.LastSeenAt)
	assert.True(t, result.CycleDispatched)
	assert.Equal(t, []string{"office_a"}, dispatcher.zones)

	votes, err := store.ListRecentVotes(context.Background(), "office_a", cycleNow.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, entities.VoteTooCold, votes[0].Value)
}

func TestSubmitVoteKeepsFirstSeenOnRepeatVotes(t *testing.T) {
	store := memory.NewStore([]entities.Zone{officeZone()})
	store.SetNow(cycleNow)
	uc := newVoteUseCase(store, nil)

	_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{UserID: "u-1", ZoneID: "office_a", Value: entities.VoteFine})
	require.NoError(t, err)

	later := cycleNow.Add(3 * time.Minute)
	store.SetNow(later)
	result, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{UserID: "u-1", ZoneID: "office_a", Value: entities.VoteTooHot})
	require.NoError(t, err)

	assert.Equal(t, cycleNow, result.User.FirstSeenAt)
	assert.Equal(t, later, result.User.LastSeenAt)
	assert.False(t, result.CycleDispatched)
}

func TestSubmitVoteRejectsInvalidInput(t *testing.T) {
	store := memory.NewStore([]entities.Zone{officeZone()})
	uc := newVoteUseCase(store, nil)

	cases := []SubmitVoteCommand{
		{UserID: "", ZoneID: "office_a", Value: entities.VoteFine},
		{UserID: "u-1", ZoneID: " ", Value: entities.VoteFine},
		{UserID: "u-1", ZoneID: "office_a", Value: entities.VoteValue(2)},
	}
	for _, cmd := range cases {
		_, err := uc.SubmitVote(context.Background(), cmd)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidVoteInput)
	}
}

func TestSubmitVoteUnknownZoneStoresNothing(t *testing.T) {
	store := memory.NewStore([]entities.Zone{officeZone()})
	store.SetNow(cycleNow)
	dispatcher := &recordingDispatcher{}
	uc := newVoteUseCase(store, dispatcher)

	_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{UserID: "u-1", ZoneID: "attic", Value: entities.VoteFine})
	require.ErrorIs(t, err, domainerrors.ErrZoneNotFound)

	users, err := store.GetUsers(context.Background(), []string{"u-1"})
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Empty(t, dispatcher.zones)
}

func TestSubmitVoteSucceedsWhenDispatchFails(t *testing.T) {
	store := memory.NewStore([]entities.Zone{officeZone()})
	store.SetNow(cycleNow)
	dispatcher := &recordingDispatcher{err: errors.New("bus closed")}
	uc := newVoteUseCase(store, dispatcher)

	result, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{UserID: "u-1", ZoneID: "office_a", Value: entities.VoteTooHot})
	require.NoError(t, err)
	assert.False(t, result.CycleDispatched)
	assert.NotEmpty(t, result.Vote.VoteID)
}

func TestProvisionZonesCreatesAndRenames(t *testing.T) {
	store := memory.NewStore([]entities.Zone{
		{ZoneID: "office_a", Name: "Old Office", CurrentTemp: dec("21.3"), RecommendedTemp: dec("22.0")},
	})
	uc := ProvisionZonesUseCase{Zones: store}

	result, err := uc.ProvisionZones(context.Background(), []ZoneSeed{
		{ZoneID: "office_a", Name: "Office A", InitialTemp: dec("24.5")},
		{ZoneID: "library_b", Name: "Library B", InitialTemp: dec("26.04")},
	})
	require.NoError(t, err)
	assert.Equal(t, ProvisionResult{Created: 1, Renamed: 1}, result)

	office, err := store.GetZone(context.Background(), "office_a")
	require.NoError(t, err)
	assert.Equal(t, "Office A", office.Name)
	assert.Equal(t, "22.0", office.RecommendedTemp.StringFixed(1))
	assert.Equal(t, "21.3", office.CurrentTemp.StringFixed(1))

	library, err := store.GetZone(context.Background(), "library_b")
	require.NoError(t, err)
	assert.Equal(t, "26.0", library.RecommendedTemp.StringFixed(1))
	assert.True(t, library.CurrentTemp.Equal(library.RecommendedTemp))

	again, err := uc.ProvisionZones(context.Background(), []ZoneSeed{
		{ZoneID: "library_b", Name: "Library B", InitialTemp: dec("19.0")},
	})
	require.NoError(t, err)
	assert.Equal(t, ProvisionResult{}, again)
}

func TestProvisionZonesRejectsBlankSeed(t *testing.T) {
	uc := ProvisionZonesUseCase{Zones: memory.NewStore(nil)}
	_, err := uc.ProvisionZones(context.Background(), []ZoneSeed{{ZoneID: "x", Name: " "}})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidZoneInput)
}
