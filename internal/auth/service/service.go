package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"provenance/internal/auth/models"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
	"provenance/pkg/requestcontext"
)

type UserStore interface {
	Save(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type SessionStore interface {
	Save(ctx context.Context, sess *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

type TokenIssuer interface {
	GenerateSessionToken(userID, sessionID string, expiresIn time.Duration) (string, error)
}

// Service logs operators in and owns the server-side session lifecycle.
type Service struct {
	users      UserStore
	sessions   SessionStore
	tokens     TokenIssuer
	sessionTTL time.Duration
	bcryptCost int
	logger     *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func New(users UserStore, sessions SessionStore, tokens TokenIssuer, sessionTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterUser hashes the password and stores a new operator account.
func (s *Service) RegisterUser(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
	}
	return u, nil
}

// Login checks the password and opens a session bound to a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	now := requestcontext.Now(ctx)
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Email:     u.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := sess.SetData("name", u.Name); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build session")
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}

	token, err := s.tokens.GenerateSessionToken(u.ID, sess.ID, s.sessionTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logger.InfoContext(ctx, "user logged in",
		"user_id", u.ID,
		"session_id", sess.ID,
	)
	return &models.LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		SessionID:   sess.ID,
		ExpiresAt:   sess.ExpiresAt,
		User:        models.UserView{ID: u.ID, Email: u.Email, Name: u.Name},
	}, nil
}

// Logout deletes the session. RequireSession rejects the bearer token from
// then on.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}
	return nil
}

// Session loads a live session.
func (s *Service) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	return sess, nil
}

// CheckSession reports whether sessionID names a live session.
func (s *Service) CheckSession(ctx context.Context, sessionID string) error {
	_, err := s.Session(ctx, sessionID)
	return err
}
