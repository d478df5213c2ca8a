package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/adapters/memory"
	"thermasense/contexts/building-comfort/thermostat-engine/application/commands"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/services"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
	contractsv1 "thermasense/contracts/gen/events/v1"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var workerNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// syncBus delivers events to subscribers inline.
type syncBus struct {
	mu        sync.Mutex
	handlers  map[string][]func(context.Context, ports.EventEnvelope) error
	published []ports.EventEnvelope
	failWith  error
}

func newSyncBus() *syncBus {
	return &syncBus{handlers: map[string][]func(context.Context, ports.EventEnvelope) error{}}
}

func (b *syncBus) Subscribe(_ context.Context, topic string, _ string, handler func(context.Context, ports.EventEnvelope) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

func (b *syncBus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.Lock()
	if b.failWith != nil {
		err := b.failWith
		b.mu.Unlock()
		return err
	}
	b.published = append(b.published, event)
	handlers := append([]func(context.Context, ports.EventEnvelope) error(nil), b.handlers[topic]...)
	b.mu.Unlock()
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	points []ports.SetpointPoint
}

func (s *recordingSink) WriteSetpoint(_ context.Context, point ports.SetpointPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, point)
	return nil
}

type stubRunner struct {
	results []entities.CycleResult
	err     error
	zones   []string
}

func (r *stubRunner) RunCycle(_ context.Context, zoneID string) (entities.CycleResult, error) {
	r.zones = append(r.zones, zoneID)
	return entities.CycleResult{ZoneID: zoneID, Status: entities.CycleStatusInsufficientVotes}, r.err
}

func (r *stubRunner) RunAllCycles(context.Context) ([]entities.CycleResult, error) {
	return r.results, r.err
}

func newWorkerStore() *memory.Store {
	store := memory.NewStore([]entities.Zone{
		entities.NewZone("office_a", "Office A", decimal.RequireFromString("24.0")),
	})
	store.SetNow(workerNow)
	return store
}

func newCycle(store *memory.Store) commands.RecommendationCycle {
	return commands.RecommendationCycle{
		Zones:  store,
		Votes:  store,
		Users:  store,
		Writer: store,
		Clock:  store,
		IDGen:  store,
		Policy: services.DefaultPolicy(),
	}
}

func seedHotVotes(t *testing.T, store *memory.Store, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		_, err := store.AppendVote(context.Background(), entities.Vote{
			UserID:    string(rune('a' + i)),
			ZoneID:    "office_a",
			Value:     entities.VoteTooHot,
			CreatedAt: workerNow.Add(-time.Minute),
		})
		require.NoError(t, err)
	}
}

func TestDispatchedCycleRunsThroughConsumer(t *testing.T) {
	store := newWorkerStore()
	seedHotVotes(t, store, 3)
	bus := newSyncBus()

	consumer := CycleConsumer{Subscriber: bus, Cycles: newCycle(store)}
	require.NoError(t, consumer.Start(context.Background()))

	dispatcher := BusDispatcher{Publisher: bus, Clock: store, IDGen: store}
	require.NoError(t, dispatcher.DispatchCycle(context.Background(), "office_a", "vote_submitted"))

	require.Len(t, bus.published, 1)
	event := bus.published[0]
	assert.Equal(t, contractsv1.TopicCycleRequested, event.EventType)
	assert.Equal(t, "office_a", event.PartitionKey)
	assert.Equal(t, "zone_id", event.PartitionKeyPath)

	zone, err := store.GetZone(context.Background(), "office_a")
	require.NoError(t, err)
	assert.Equal(t, "24.5", zone.RecommendedTemp.StringFixed(1))
}

func TestCycleConsumerFallsBackToPartitionKey(t *testing.T) {
	runner := &stubRunner{}
	consumer := CycleConsumer{Cycles: runner}

	err := consumer.handleCycleRequested(context.Background(), ports.EventEnvelope{
		EventID:      "evt-1",
		PartitionKey: "library_b",
		Data:         []byte(`{"reason":"manual"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"library_b"}, runner.zones)
}

func TestCycleConsumerRejectsMalformedPayload(t *testing.T) {
	consumer := CycleConsumer{Cycles: &stubRunner{}}
	err := consumer.handleCycleRequested(context.Background(), ports.EventEnvelope{Data: []byte(`{`)})
	assert.Error(t, err)
}

func TestOutboxRelayPublishesCommittedSetpoints(t *testing.T) {
	store := newWorkerStore()
	seedHotVotes(t, store, 3)
	_, err := newCycle(store).RunCycle(context.Background(), "office_a")
	require.NoError(t, err)

	bus := newSyncBus()
	sink := &recordingSink{}
	require.NoError(t, TelemetryConsumer{Subscriber: bus, Sink: sink}.Start(context.Background()))

	relay := OutboxRelay{Outbox: store, Publisher: bus, Clock: store, BatchSize: 10}
	require.NoError(t, relay.RunOnce(context.Background()))

	require.Len(t, bus.published, 1)
	assert.Equal(t, contractsv1.TopicSetpointCommitted, bus.published[0].EventType)
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.Len(t, sink.points, 1)
	point := sink.points[0]
	assert.Equal(t, "office_a", point.ZoneID)
	assert.Equal(t, "24.5", point.RecommendedTemp.StringFixed(1))
	assert.Equal(t, "24.0", point.CurrentTemp.StringFixed(1))
	assert.Equal(t, 3, point.VoteCount)
	assert.True(t, workerNow.Equal(point.Timestamp))

	require.NoError(t, relay.RunOnce(context.Background()))
	assert.Len(t, bus.published, 1)
}

func TestOutboxRelayLeavesRowPendingOnPublishFailure(t *testing.T) {
	store := newWorkerStore()
	seedHotVotes(t, store, 3)
	_, err := newCycle(store).RunCycle(context.Background(), "office_a")
	require.NoError(t, err)

	bus := newSyncBus()
	bus.failWith = errors.New("broker down")
	relay := OutboxRelay{Outbox: store, Publisher: bus}
	require.Error(t, relay.RunOnce(context.Background()))

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSweeperToleratesZoneFailures(t *testing.T) {
	runner := &stubRunner{
		results: []entities.CycleResult{{ZoneID: "office_a", Status: entities.CycleStatusCommitted}},
		err:     errors.New("zone library_b: boom"),
	}
	assert.NoError(t, Sweeper{Cycles: runner}.RunOnce(context.Background()))
}

func TestSweeperReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &stubRunner{err: context.Canceled}
	assert.ErrorIs(t, Sweeper{Cycles: runner}.RunOnce(ctx), context.Canceled)
}
