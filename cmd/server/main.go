package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	authservice "provenance/internal/auth/service"
	"provenance/internal/auth/store/session"
	"provenance/internal/auth/store/user"
	"provenance/internal/credential/service"
	"provenance/internal/credential/store"
	"provenance/internal/credential/verifier"
	jwttoken "provenance/internal/jwt_token"
	"provenance/internal/platform/config"
	"provenance/internal/platform/httpserver"
	"provenance/internal/platform/kafka"
	"provenance/internal/platform/logger"
	"provenance/internal/platform/metrics"
	"provenance/internal/platform/postgres"
	"provenance/internal/platform/redis"
	"provenance/internal/registry"
	"provenance/internal/registry/oauth"
	"provenance/internal/registry/state"
	"provenance/internal/signing"
	"provenance/internal/upstream"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run wires dependencies and serves until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	sessions, states := sessionStores(cfg, infra)
	collections, deliveries, verifications := credentialStores(infra, cfg, log, m)

	signingHTTP := upstream.NewClient("signing", cfg.Signing.Timeout, upstream.WithMetrics(m))
	broker := signing.NewBroker(signing.BrokerConfig{
		TokenURL:     cfg.Signing.TokenURL,
		ClientID:     cfg.Signing.ClientID,
		ClientSecret: cfg.Signing.ClientSecret,
		Audience:     cfg.Signing.Audience,
	}, signingHTTP, signing.WithBrokerLogger(log), signing.WithBrokerMetrics(m))
	platform := signing.NewClient(cfg.Signing.APIURL, broker, signingHTTP, log)

	credentials := service.New(
		collections, deliveries, verifications,
		verifier.New(platform, cfg.Signing.TrustedIssuers, log),
		platform,
		service.Config{
			IssuerDID:          cfg.Signing.IssuerDID,
			CollectionTypeName: cfg.Signing.CollectionTypeName,
			DeliveryTypeName:   cfg.Signing.DeliveryTypeName,
		},
		service.WithLogger(log),
		service.WithMetrics(m),
	)

	registryHTTP := upstream.NewClient("registry", cfg.Registry.Timeout, upstream.WithMetrics(m))
	coordinator := oauth.NewCoordinator(oauth.Config{
		AuthorizeURL: cfg.Registry.AuthorizeURL,
		TokenURL:     cfg.Registry.TokenURL,
		ClientID:     cfg.Registry.ClientID,
		ClientSecret: cfg.Registry.ClientSecret,
		RedirectURI:  cfg.Registry.RedirectURI,
		Scope:        cfg.Registry.Scope,
		Policy:       cfg.Registry.Policy,
		StateTTL:     cfg.Registry.StateTTL,
	}, registryHTTP, states, sessions, oauth.WithLogger(log), oauth.WithMetrics(m))
	registryClient := registry.NewClient(cfg.Registry.APIURL, cfg.Registry.SubscriptionKey, coordinator, registryHTTP, log)

	tokens := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "provenance")
	auth := authservice.New(user.New(), sessions, tokens, cfg.Session.TTL, authservice.WithLogger(log))
	if err := seedOperator(ctx, cfg.Auth, auth, log); err != nil {
		return err
	}

	router := newRouter(routerDeps{
		cfg:         cfg,
		log:         log,
		registry:    reg,
		tokens:      tokens,
		sessions:    auth,
		auth:        auth,
		credentials: credentials,
		oauth:       coordinator,
		parts:       registryClient,
		health:      infra.Health,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting provenance", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// infrastructure holds the optional backing services. Each is nil when not
// configured.
type infrastructure struct {
	redis    *redis.Client
	db       *sql.DB
	producer *kafka.Producer
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{}
	var err error
	if infra.redis, err = redis.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if infra.db, err = postgres.Open(ctx, cfg.Postgres); err != nil {
		infra.Close()
		return nil, err
	}
	if infra.db != nil {
		if err := store.Migrate(ctx, infra.db); err != nil {
			infra.Close()
			return nil, err
		}
	}
	if infra.producer, err = kafka.NewProducer(ctx, cfg.Kafka); err != nil {
		infra.Close()
		return nil, err
	}
	if infra.producer != nil {
		if err := infra.producer.EnsureTopics(ctx, 1, 1, cfg.Kafka.VerificationTopic); err != nil {
			log.Warn("could not ensure verification topic", "topic", cfg.Kafka.VerificationTopic, "error", err)
		}
	}
	log.Info("infrastructure ready",
		"redis", infra.redis != nil,
		"postgres", infra.db != nil,
		"kafka", infra.producer != nil,
	)
	return infra, nil
}

// Health pings every configured backend.
func (i *infrastructure) Health(ctx context.Context) error {
	if i.redis != nil {
		if err := i.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if i.db != nil {
		if err := i.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	return nil
}

func (i *infrastructure) Close() {
	if i.producer != nil {
		i.producer.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
}

// authSessionStore is what both login and the registry flow need from sessions.
type authSessionStore interface {
	authservice.SessionStore
	oauth.SessionStore
}

func sessionStores(cfg config.Config, infra *infrastructure) (authSessionStore, state.Store) {
	if cfg.Session.StoreType == config.StoreTypeRedis {
		return session.NewRedis(infra.redis.Client), state.NewRedis(infra.redis.Client)
	}
	return session.New(), state.NewInMemory()
}

func credentialStores(infra *infrastructure, cfg config.Config, log *slog.Logger, m *metrics.Metrics) (service.CollectionStore, service.DeliveryStore, service.VerificationStore) {
	var (
		collections   service.CollectionStore
		deliveries    service.DeliveryStore
		verifications store.VerificationLog
	)
	if infra.db != nil {
		collections = store.NewPostgresCollectionStore(infra.db)
		deliveries = store.NewPostgresDeliveryStore(infra.db)
		verifications = store.NewPostgresVerificationStore(infra.db)
	} else {
		collections = store.NewInMemoryCollectionStore()
		deliveries = store.NewInMemoryDeliveryStore()
		verifications = store.NewInMemoryVerificationStore()
	}
	if infra.producer != nil {
		verifications = store.NewPublishingVerificationStore(verifications, infra.producer, cfg.Kafka.VerificationTopic, log, m)
	}
	return collections, deliveries, verifications
}

func seedOperator(ctx context.Context, cfg config.AuthConfig, auth *authservice.Service, log *slog.Logger) error {
	if cfg.SeedEmail == "" {
		return nil
	}
	if _, err := auth.RegisterUser(ctx, cfg.SeedEmail, cfg.SeedName, cfg.SeedPassword); err != nil {
		return fmt.Errorf("seed operator: %w", err)
	}
	log.Info("seeded operator account", "email", cfg.SeedEmail)
	return nil
}
