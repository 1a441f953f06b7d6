package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	dErrors "provenance/pkg/domain-errors"
	strutil "provenance/pkg/platform/strings"
)

// Config is the full runtime configuration assembled from the environment.
type Config struct {
	Server   Server
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Signing  SigningConfig
	Registry RegistryConfig
	Session  SessionConfig
	Auth     AuthConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	FrontendURL     string
	JWTSigningKey   string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// RedisConfig configures the shared Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the credential database. An empty DSN selects
// in-memory stores.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig configures verification event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers           []string
	VerificationTopic string
}

// SigningConfig configures the credential-signing platform.
type SigningConfig struct {
	APIURL             string
	TokenURL           string
	ClientID           string
	ClientSecret       string
	Audience           string
	IssuerDID          string
	TrustedIssuers     []string
	CollectionTypeName string
	DeliveryTypeName   string
	Timeout            time.Duration
}

// RegistryConfig configures the business registry and its three-legged OAuth.
type RegistryConfig struct {
	APIURL          string
	SubscriptionKey string
	AuthorizeURL    string
	TokenURL        string
	ClientID        string
	ClientSecret    string
	RedirectURI     string
	Scope           string
	Policy          string
	StateTTL        time.Duration
	Timeout         time.Duration
}

// SessionConfig selects the session and authorization state backend.
type SessionConfig struct {
	StoreType string
	TTL       time.Duration
}

// AuthConfig seeds the initial operator account. An empty email skips seeding.
type AuthConfig struct {
	SeedEmail    string
	SeedPassword string
	SeedName     string
}

const (
	StoreTypeRedis  = "redis"
	StoreTypeMemory = "memory"
)

// FromEnv builds a Config from environment variables, loading a local .env
// file first when one exists.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		Server: Server{
			Addr:            envOr("SERVER_ADDR", ":3001"),
			FrontendURL:     envOr("FRONTEND_URL", "http://localhost:3000"),
			JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			LogLevel:        envOr("LOG_LEVEL", "info"),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:           envList("KAFKA_BROKERS"),
			VerificationTopic: envOr("KAFKA_VERIFICATION_TOPIC", "credential.verifications"),
		},
		Signing: SigningConfig{
			APIURL:             os.Getenv("SIGNING_API_URL"),
			TokenURL:           os.Getenv("SIGNING_TOKEN_URL"),
			ClientID:           os.Getenv("SIGNING_CLIENT_ID"),
			ClientSecret:       os.Getenv("SIGNING_CLIENT_SECRET"),
			Audience:           os.Getenv("SIGNING_AUDIENCE"),
			IssuerDID:          os.Getenv("SIGNING_ISSUER_DID"),
			TrustedIssuers:     envList("SIGNING_TRUSTED_ISSUERS"),
			CollectionTypeName: envOr("SIGNING_COLLECTION_TYPE", "OrgPartHarvestCredential"),
			DeliveryTypeName:   envOr("SIGNING_DELIVERY_TYPE", "DeliveryCredential"),
			Timeout:            envDuration("SIGNING_TIMEOUT", 30*time.Second),
		},
		Registry: RegistryConfig{
			APIURL:          envOr("REGISTRY_API_URL", "https://api.business.govt.nz/sandbox"),
			SubscriptionKey: os.Getenv("REGISTRY_SUBSCRIPTION_KEY"),
			AuthorizeURL:    envOr("REGISTRY_OAUTH_AUTHORIZE_URL", "https://api.business.govt.nz/oauth2/v2.0/authorize"),
			TokenURL:        envOr("REGISTRY_OAUTH_TOKEN_URL", "https://api.business.govt.nz/oauth2/v2.0/token"),
			ClientID:        os.Getenv("REGISTRY_OAUTH_CLIENT_ID"),
			ClientSecret:    os.Getenv("REGISTRY_OAUTH_CLIENT_SECRET"),
			RedirectURI:     envOr("REGISTRY_OAUTH_REDIRECT_URI", "http://localhost:3001/registry/oauth/callback"),
			Scope:           envOr("REGISTRY_OAUTH_SCOPE", "https://api.business.govt.nz/sandbox/NZBNCO:manage offline_access"),
			Policy:          envOr("REGISTRY_OAUTH_POLICY", "b2c_1a_api_consent_susi"),
			StateTTL:        envDuration("REGISTRY_OAUTH_STATE_TTL", 10*time.Minute),
			Timeout:         envDuration("REGISTRY_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			StoreType: envOr("SESSION_STORE_TYPE", StoreTypeMemory),
			TTL:       envDuration("SESSION_TTL", time.Hour),
		},
		Auth: AuthConfig{
			SeedEmail:    os.Getenv("AUTH_SEED_EMAIL"),
			SeedPassword: os.Getenv("AUTH_SEED_PASSWORD"),
			SeedName:     envOr("AUTH_SEED_NAME", "Operator"),
		},
	}

	// The issuer allow-list defaults to the platform's own issuer.
	if len(cfg.Signing.TrustedIssuers) == 0 && cfg.Signing.IssuerDID != "" {
		cfg.Signing.TrustedIssuers = []string{cfg.Signing.IssuerDID}
	}
	return cfg
}

// Validate reports settings the process cannot start without. Upstream
// credentials are checked lazily by the clients that need them.
func (c Config) Validate() error {
	if c.Server.JWTSigningKey == "" {
		return dErrors.New(dErrors.CodeConfiguration, "JWT_SIGNING_KEY is required")
	}
	switch c.Session.StoreType {
	case StoreTypeMemory:
	case StoreTypeRedis:
		if c.Redis.URL == "" {
			return dErrors.New(dErrors.CodeConfiguration, "REDIS_URL is required when SESSION_STORE_TYPE=redis")
		}
	default:
		return dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("unsupported SESSION_STORE_TYPE %q", c.Session.StoreType))
	}
	if c.Session.TTL <= 0 {
		return dErrors.New(dErrors.CodeConfiguration, "SESSION_TTL must be positive")
	}
	if c.Auth.SeedEmail != "" && c.Auth.SeedPassword == "" {
		return dErrors.New(dErrors.CodeConfiguration, "AUTH_SEED_PASSWORD is required with AUTH_SEED_EMAIL")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// envDuration accepts Go durations ("30s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	return strutil.DedupeAndTrim(strings.Split(raw, ","))
}
