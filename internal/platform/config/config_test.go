package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "provenance/pkg/domain-errors"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("SESSION_TTL", "")
	t.Setenv("SIGNING_TRUSTED_ISSUERS", "")
	t.Setenv("SIGNING_ISSUER_DID", "did:web:issuer.example")

	cfg := FromEnv()

	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "b2c_1a_api_consent_susi", cfg.Registry.Policy)
	assert.Equal(t, 10*time.Minute, cfg.Registry.StateTTL)
	assert.Equal(t, 30*time.Second, cfg.Signing.Timeout)
	assert.Equal(t, []string{"did:web:issuer.example"}, cfg.Signing.TrustedIssuers)
}

func TestFromEnvParsesListsAndSeconds(t *testing.T) {
	t.Setenv("SIGNING_TRUSTED_ISSUERS", "did:web:a, did:web:b,,")
	t.Setenv("SESSION_TTL", "120")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")

	cfg := FromEnv()

	assert.Equal(t, []string{"did:web:a", "did:web:b"}, cfg.Signing.TrustedIssuers)
	assert.Equal(t, 2*time.Minute, cfg.Session.TTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:  Server{JWTSigningKey: "k"},
		Session: SessionConfig{StoreType: StoreTypeMemory, TTL: time.Hour},
	}
	require.NoError(t, valid.Validate())

	redisWithoutURL := valid
	redisWithoutURL.Session.StoreType = StoreTypeRedis
	err := redisWithoutURL.Validate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))

	unknownStore := valid
	unknownStore.Session.StoreType = "etcd"
	assert.Error(t, unknownStore.Validate())
}
