//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"provenance/internal/auth/models"
	"provenance/internal/auth/store/session"
	"provenance/pkg/platform/sentinel"
	"provenance/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = session.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func makeSession() *models.Session {
	return &models.Session{
		ID:        uuid.NewString(),
		UserID:    uuid.NewString(),
		Email:     "grower@example.com",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func (s *RedisStoreSuite) TestRoundTripKeepsDataBag() {
	ctx := context.Background()
	sess := makeSession()
	s.Require().NoError(sess.SetData("registryOAuthToken", map[string]any{"access_token": "at-1"}))
	s.Require().NoError(s.store.Save(ctx, sess))

	found, err := s.store.FindByID(ctx, sess.ID)
	s.Require().NoError(err)

	var tok map[string]any
	ok, err := found.GetData("registryOAuthToken", &tok)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("at-1", tok["access_token"])
}

func (s *RedisStoreSuite) TestKeyExpiresWithSession() {
	ctx := context.Background()
	sess := makeSession()
	sess.ExpiresAt = time.Now().Add(30 * time.Minute)
	s.Require().NoError(s.store.Save(ctx, sess))

	ttl, err := s.redis.Client.TTL(ctx, "session:"+sess.ID).Result()
	s.Require().NoError(err)
	s.InDelta(30*time.Minute, ttl, float64(5*time.Second))
}

func (s *RedisStoreSuite) TestMissingAndDeleted() {
	ctx := context.Background()
	_, err := s.store.FindByID(ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)

	sess := makeSession()
	s.Require().NoError(s.store.Save(ctx, sess))
	s.Require().NoError(s.store.Delete(ctx, sess.ID))
	_, err = s.store.FindByID(ctx, sess.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
