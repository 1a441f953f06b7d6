//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"provenance/internal/credential"
	"provenance/internal/credential/store"
	"provenance/internal/platform/config"
	"provenance/internal/platform/kafka"
	"provenance/pkg/testutil/containers"
)

func TestPublishingVerificationStoreWritesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	broker := containers.GetManager().GetRedpanda(t)
	const topic = "credential.verifications.test"

	producer, err := kafka.NewProducer(ctx, config.KafkaConfig{Brokers: broker.Brokers})
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, producer.EnsureTopics(ctx, 1, 1, topic))

	s := store.NewPublishingVerificationStore(store.NewInMemoryVerificationStore(), producer, topic, nil, nil)
	require.NoError(t, s.Insert(ctx, &credential.VerificationRecord{
		ID:             "rec-1",
		CredentialID:   "cred-abc",
		CredentialType: credential.TypeDelivery,
		Verified:       true,
		VerifiedAt:     time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, producer.Flush(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.NotEmpty(t, records)

	var event store.VerificationEvent
	require.NoError(t, json.Unmarshal(records[0].Value, &event))
	assert.Equal(t, "cred-abc", string(records[0].Key))
	assert.Equal(t, "delivery", event.CredentialType)
	assert.True(t, event.Verified)
}
