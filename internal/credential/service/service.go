// Package service verifies, reconciles, revokes and issues supply-chain
// credentials against the local collection and delivery registers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"provenance/internal/credential"
	"provenance/internal/credential/verifier"
	"provenance/internal/platform/metrics"
	"provenance/internal/signing"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
)

type CollectionStore interface {
	Save(ctx context.Context, c *credential.CollectionCredential) error
	FindByCredentialID(ctx context.Context, id string) (*credential.CollectionCredential, error)
	FindByDomainID(ctx context.Context, collectionID string) (*credential.CollectionCredential, error)
	UpdateStatus(ctx context.Context, id string, status credential.Status) error
}

type DeliveryStore interface {
	Save(ctx context.Context, d *credential.DeliveryCredential) error
	FindByCredentialID(ctx context.Context, id string) (*credential.DeliveryCredential, error)
	FindByDomainID(ctx context.Context, deliveryID string) (*credential.DeliveryCredential, error)
	UpdateStatus(ctx context.Context, id string, status credential.Status) error
}

type VerificationStore interface {
	Insert(ctx context.Context, rec *credential.VerificationRecord) error
	IsFirstVerification(ctx context.Context, credentialID string) (bool, error)
	ListByCredentialID(ctx context.Context, credentialID string) ([]*credential.VerificationRecord, error)
}

type Verifier interface {
	Verify(ctx context.Context, compact string) (*verifier.Result, error)
}

type Platform interface {
	SignCompact(ctx context.Context, in signing.SignRequest) (*signing.SignedCredential, error)
	QRCode(ctx context.Context, encoded string) (*signing.QRCode, error)
	SetRevocationStatus(ctx context.Context, credentialID string, revoked bool) error
}

// Config names the credential types written into signed payloads.
type Config struct {
	IssuerDID          string
	CollectionTypeName string
	DeliveryTypeName   string
}

const (
	defaultCollectionTypeName = "OrgPartHarvestCredential"
	defaultDeliveryTypeName   = "DeliveryCredential"
)

type Service struct {
	collections   CollectionStore
	deliveries    DeliveryStore
	verifications VerificationStore
	verifier      Verifier
	platform      Platform
	cfg           Config
	collectionIDs *credential.IDGenerator
	deliveryIDs   *credential.IDGenerator
	logger        *slog.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock sets the time source for records and generated identifiers.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(
	collections CollectionStore,
	deliveries DeliveryStore,
	verifications VerificationStore,
	v Verifier,
	platform Platform,
	cfg Config,
	opts ...Option,
) *Service {
	if cfg.CollectionTypeName == "" {
		cfg.CollectionTypeName = defaultCollectionTypeName
	}
	if cfg.DeliveryTypeName == "" {
		cfg.DeliveryTypeName = defaultDeliveryTypeName
	}
	s := &Service{
		collections:   collections,
		deliveries:    deliveries,
		verifications: verifications,
		verifier:      v,
		platform:      platform,
		cfg:           cfg,
		logger:        slog.New(slog.DiscardHandler),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.collectionIDs = credential.NewCollectionIDGenerator(s.now)
	s.deliveryIDs = credential.NewDeliveryIDGenerator(s.now)
	return s
}

// lookupExternalID resolves a domain identifier to the signing platform id
// held by the matching local register.
func (s *Service) lookupExternalID(ctx context.Context, t credential.Type, domainID string) (string, error) {
	switch t {
	case credential.TypeCollection:
		c, err := s.collections.FindByDomainID(ctx, domainID)
		if err != nil {
			return "", err
		}
		return c.ID, nil
	case credential.TypeDelivery:
		d, err := s.deliveries.FindByDomainID(ctx, domainID)
		if err != nil {
			return "", err
		}
		return d.ID, nil
	default:
		return "", fmt.Errorf("lookup %s: %w", t, sentinel.ErrNotFound)
	}
}

func notRegistered(t credential.Type, domainID string, err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("%s credential %s not found", t, domainID))
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up credential")
}

// Verifications lists the recorded verification attempts for a credential.
func (s *Service) Verifications(ctx context.Context, credentialID string) ([]*credential.VerificationRecord, error) {
	recs, err := s.verifications.ListByCredentialID(ctx, credentialID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifications")
	}
	return recs, nil
}
