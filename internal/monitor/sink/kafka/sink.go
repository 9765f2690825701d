// Package kafka publishes security alerts to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustrag/internal/monitor/models"
)

// DefaultTopic receives alerts when no topic is configured.
const DefaultTopic = "trustrag.security.alerts"

// Producer is the subset of *kgo.Client used by the sink.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink writes each alert as one JSON record keyed by user.
type Sink struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

type Option func(*Sink)

func WithTopic(t string) Option {
	return func(s *Sink) {
		if t != "" {
			s.topic = t
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(producer Producer, opts ...Option) (*Sink, error) {
	if producer == nil {
		return nil, errors.New("kafka producer is required")
	}
	s := &Sink{producer: producer, topic: DefaultTopic, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewClient connects to brokers with idempotent, acks=all production.
func NewClient(brokers []string, opts ...kgo.Opt) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(0),
	}
	cl, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return cl, nil
}

// EnsureTopic creates topic if it does not exist.
func EnsureTopic(ctx context.Context, cl *kgo.Client, topic string, partitions int32, replication int16) error {
	adm := kadm.NewClient(cl)
	resp, err := adm.CreateTopic(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

func (s *Sink) Topic() string { return s.topic }

// Publish blocks until the broker acknowledges the record or ctx ends.
func (s *Sink) Publish(ctx context.Context, a models.Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(a.User),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "alert_type", Value: []byte(a.Type)},
			{Key: "severity", Value: []byte(a.Severity)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce alert %s: %w", a.ID, err)
	}
	s.logger.DebugContext(ctx, "alert published", "alert_id", a.ID, "topic", s.topic)
	return nil
}
