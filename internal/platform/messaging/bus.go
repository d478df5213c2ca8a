package messaging

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"

	"thermasense/contexts/building-comfort/thermostat-engine/ports"
)

const (
	defaultPartitions = 8
	partitionBuffer   = 1024
)

var (
	ErrBusClosed           = errors.New("event bus closed")
	ErrPartitionBacklogged = errors.New("event bus partition backlogged")
	ErrDuplicateConsumer   = errors.New("consumer group already subscribed to topic")
	ErrEmptyConsumerGroup  = errors.New("consumer group is required")
)

type subscription struct {
	topic   string
	group   string
	queues  []chan ports.EventEnvelope
	handler func(context.Context, ports.EventEnvelope) error
	done    chan struct{}
}

// Bus is the in-process event bus used by the api and worker processes.
// Every consumer group sees every event of its topic. Events are routed to a
// partition by PartitionKey, and each partition is drained by one goroutine,
// so one key is handled in publish order while different keys run in parallel.
type Bus struct {
	mu            sync.RWMutex
	partitions    int
	subscriptions map[string][]*subscription
	closed        bool
	wg            sync.WaitGroup
	logger        *slog.Logger
}

func NewBus(partitions int, logger *slog.Logger) *Bus {
	if partitions <= 0 {
		partitions = defaultPartitions
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		partitions:    partitions,
		subscriptions: make(map[string][]*subscription),
		logger:        logger,
	}
}

// Partition returns the partition index a key is routed to.
func (b *Bus) Partition(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(b.partitions))
}

// Publish queues the event for every subscribed group without waiting on
// consumers. A group whose partition queue is full gets nothing and Publish
// returns ErrPartitionBacklogged after offering the event to the remaining groups.
func (b *Bus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	subs := append([]*subscription(nil), b.subscriptions[topic]...)
	b.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	partition := b.Partition(event.PartitionKey)
	var backlogged []string
	for _, sub := range subs {
		select {
		case <-sub.done:
		case sub.queues[partition] <- event:
		default:
			backlogged = append(backlogged, sub.group)
		}
	}
	if len(backlogged) > 0 {
		b.logger.Warn("event dropped for backlogged consumers",
			"event", "bus_partition_backlogged",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"partition", partition,
			"consumer_groups", backlogged,
		)
		return fmt.Errorf("%w: partition %d of %s", ErrPartitionBacklogged, partition, topic)
	}

	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"partition", partition,
		"subscriber_count", len(subs),
	)
	return nil
}

func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	consumerGroup = strings.TrimSpace(consumerGroup)
	if consumerGroup == "" {
		return ErrEmptyConsumerGroup
	}
	sub := &subscription{
		topic:   topic,
		group:   consumerGroup,
		queues:  make([]chan ports.EventEnvelope, b.partitions),
		handler: handler,
		done:    make(chan struct{}),
	}
	for i := range sub.queues {
		sub.queues[i] = make(chan ports.EventEnvelope, partitionBuffer)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	for _, existing := range b.subscriptions[topic] {
		if existing.group == consumerGroup {
			b.mu.Unlock()
			return ErrDuplicateConsumer
		}
	}
	b.subscriptions[topic] = append(b.subscriptions[topic], sub)
	b.mu.Unlock()

	for partition, queue := range sub.queues {
		b.wg.Add(1)
		go b.drain(ctx, sub, partition, queue)
	}
	go func() {
		select {
		case <-ctx.Done():
		case <-sub.done:
		}
		b.removeSubscription(sub)
	}()
	return nil
}

func (b *Bus) drain(ctx context.Context, sub *subscription, partition int, queue chan ports.EventEnvelope) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case event := <-queue:
			if err := sub.handler(ctx, event); err != nil {
				b.logger.Error("consumer handler failed",
					"event", "bus_consume_failed",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", sub.topic,
					"consumer_group", sub.group,
					"partition", partition,
					"event_id", event.EventID,
					"event_type", event.EventType,
					"error", err.Error(),
				)
			}
		}
	}
}

func (b *Bus) removeSubscription(target *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.subscriptions[target.topic]
	filtered := make([]*subscription, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	b.subscriptions[target.topic] = filtered
}

// Close stops all consumers and waits for in-flight handlers to return.
// Queued events that were not yet handled are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var subs []*subscription
	for _, items := range b.subscriptions {
		subs = append(subs, items...)
	}
	b.subscriptions = make(map[string][]*subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		close(sub.done)
	}
	b.wg.Wait()
	return nil
}

var (
	_ ports.EventPublisher  = (*Bus)(nil)
	_ ports.EventSubscriber = (*Bus)(nil)
)
