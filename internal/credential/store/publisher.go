package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"provenance/internal/credential"
	"provenance/internal/platform/metrics"
)

// VerificationLog is the store contract the publisher decorates.
type VerificationLog interface {
	Insert(ctx context.Context, rec *credential.VerificationRecord) error
	IsFirstVerification(ctx context.Context, credentialID string) (bool, error)
	ListByCredentialID(ctx context.Context, credentialID string) ([]*credential.VerificationRecord, error)
}

// Producer hands one record to the broker client and returns without
// waiting for delivery. done reports the delivery result later.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte, done func(error))
}

// VerificationEvent is the message published for every stored verification.
type VerificationEvent struct {
	ID                  string    `json:"id"`
	CredentialID        string    `json:"credentialId"`
	CredentialType      string    `json:"credentialType"`
	TypeDefaulted       bool      `json:"typeDefaulted"`
	UserID              string    `json:"userId,omitempty"`
	MobileApplicationID string    `json:"mobileApplicationId,omitempty"`
	Verified            bool      `json:"verified"`
	VerifiedAt          time.Time `json:"verifiedAt"`
}

// PublishingVerificationStore publishes each inserted record after the
// underlying store accepted it. Insert never waits on the broker; delivery
// failures are logged and counted when they surface.
type PublishingVerificationStore struct {
	next     VerificationLog
	producer Producer
	topic    string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewPublishingVerificationStore(next VerificationLog, producer Producer, topic string, logger *slog.Logger, m *metrics.Metrics) *PublishingVerificationStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PublishingVerificationStore{
		next:     next,
		producer: producer,
		topic:    topic,
		logger:   logger,
		metrics:  m,
	}
}

func (s *PublishingVerificationStore) Insert(ctx context.Context, rec *credential.VerificationRecord) error {
	if err := s.next.Insert(ctx, rec); err != nil {
		return err
	}
	value, err := json.Marshal(VerificationEvent{
		ID:                  rec.ID,
		CredentialID:        rec.CredentialID,
		CredentialType:      string(rec.CredentialType),
		TypeDefaulted:       rec.TypeDefaulted,
		UserID:              rec.UserID,
		MobileApplicationID: rec.MobileApplicationID,
		Verified:            rec.Verified,
		VerifiedAt:          rec.VerifiedAt,
	})
	if err != nil {
		s.metrics.IncVerificationEvent("encode_error")
		s.logger.ErrorContext(ctx, "failed to encode verification event", "error", err)
		return nil
	}
	logCtx := context.WithoutCancel(ctx)
	s.producer.Produce(ctx, s.topic, []byte(rec.CredentialID), value, func(err error) {
		if err != nil {
			s.metrics.IncVerificationEvent("error")
			s.logger.ErrorContext(logCtx, "failed to publish verification event",
				"credential_id", rec.CredentialID,
				"topic", s.topic,
				"error", err,
			)
			return
		}
		s.metrics.IncVerificationEvent("published")
	})
	return nil
}

func (s *PublishingVerificationStore) IsFirstVerification(ctx context.Context, credentialID string) (bool, error) {
	return s.next.IsFirstVerification(ctx, credentialID)
}

func (s *PublishingVerificationStore) ListByCredentialID(ctx context.Context, credentialID string) ([]*credential.VerificationRecord, error) {
	return s.next.ListByCredentialID(ctx, credentialID)
}
