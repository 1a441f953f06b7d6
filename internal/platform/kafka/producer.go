package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"provenance/internal/platform/config"
)

const (
	recordDeliveryTimeout = 30 * time.Second
	closeFlushTimeout     = 5 * time.Second
)

// Producer publishes records through franz-go without waiting on acks.
type Producer struct {
	client *kgo.Client
}

// NewProducer connects to the configured brokers.
// Returns nil if no brokers are configured.
func NewProducer(ctx context.Context, cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(recordDeliveryTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	return &Producer{client: client}, nil
}

// EnsureTopics creates topics that do not exist yet.
func (p *Producer) EnsureTopics(ctx context.Context, partitions int32, replicationFactor int16, topics ...string) error {
	adm := kadm.NewClient(p.client)
	resps, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for topic, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", topic, resp.Err)
		}
	}
	return nil
}

// Produce buffers a record and returns at once. done runs with the delivery
// result; a full buffer fails the record immediately instead of blocking.
// The record outlives ctx cancellation.
func (p *Producer) Produce(ctx context.Context, topic string, key, value []byte, done func(error)) {
	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	p.client.TryProduce(context.WithoutCancel(ctx), rec, func(_ *kgo.Record, err error) {
		if err != nil {
			err = fmt.Errorf("produce to %s: %w", topic, err)
		}
		done(err)
	})
}

// Flush waits until every buffered record has been delivered or failed.
func (p *Producer) Flush(ctx context.Context) error {
	return p.client.Flush(ctx)
}

// Close flushes outstanding records for a bounded time and releases broker
// connections.
func (p *Producer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
