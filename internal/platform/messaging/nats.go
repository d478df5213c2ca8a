package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/ports"

	"github.com/nats-io/nats.go"
)

const defaultSubjectPrefix = "thermasense"

// NATSPublisher mirrors envelopes onto NATS subjects of the form
// <prefix>.<topic> for consumers outside this process.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

func ConnectNATS(url string, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("thermasense"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return NewNATSPublisher(conn, prefix, logger), nil
}

func NewNATSPublisher(conn *nats.Conn, prefix string, logger *slog.Logger) *NATSPublisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}
}

// Subject maps a bus topic to its NATS subject.
func (p *NATSPublisher) Subject(topic string) string {
	return p.prefix + "." + topic
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(p.Subject(topic))
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, event.EventID)
	msg.Header.Set("Partition-Key", event.PartitionKey)
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed",
			"event", "nats_drain_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"error", err.Error(),
		)
		p.conn.Close()
	}
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)
