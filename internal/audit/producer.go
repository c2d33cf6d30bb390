// Package audit publishes terminal pipeline outcomes to Kafka so decisions
// can be replayed and inspected offline. The sink is optional; the pipeline
// never blocks on it.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/logging"
)

// Outcome is one terminal pipeline result.
type Outcome struct {
	EventID   string    `json:"event_id"`
	CastHash  string    `json:"cast_hash,omitempty"`
	AuthorFID int64     `json:"author_fid,omitempty"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	Depth     int       `json:"depth,omitempty"`
	ReplyHash string    `json:"reply_hash,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives outcomes. Implementations must not block the caller.
type Sink interface {
	Emit(o Outcome)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Emit(Outcome) {}

// DefaultTopic is the outcome topic when none is configured.
const DefaultTopic = "siren.pipeline.outcomes"

// Producer writes outcomes to a Kafka topic, keyed by cast hash so all
// deliveries for one cast land on the same partition.
type Producer struct {
	client *kgo.Client
	topic  string
	logger logging.Logger
}

// NewProducer connects to the brokers and returns a producer.
func NewProducer(brokers []string, topic, clientID string, logger logging.Logger) (*Producer, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, err
	}
	return &Producer{client: client, topic: topic, logger: logger}, nil
}

// Client exposes the underlying Kafka client for health checks.
func (p *Producer) Client() *kgo.Client {
	return p.client
}

// Emit produces the outcome asynchronously. Delivery failures are logged
// and dropped; the audit trail is best effort.
func (p *Producer) Emit(o Outcome) {
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(o)
	if err != nil {
		p.logger.WithFields(logging.Fields{"error": err.Error()}).Warn("Failed to encode audit outcome")
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(o.CastHash),
		Value: payload,
	}
	p.client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.WithFields(logging.Fields{
				"topic": p.topic,
				"error": err.Error(),
			}).Warn("Audit outcome delivery failed")
		}
	})
}

// Close flushes pending records and shuts the client down.
func (p *Producer) Close() {
	p.client.Close()
}
