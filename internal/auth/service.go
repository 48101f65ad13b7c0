package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("a user with this email address has already been registered")
	ErrSessionRevoked     = errors.New("session has been revoked")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
)

// IdentityStore is the storage the auth service owns.
type IdentityStore interface {
	CreateIdentity(ctx context.Context, ident *model.Identity) error
	IdentityByEmail(ctx context.Context, email string) (*model.Identity, error)
	IdentityByID(ctx context.Context, id uuid.UUID) (*model.Identity, error)
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
}

// Session is what a successful sign-in returns.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      uuid.UUID `json:"user_id"`
	SessionID   string    `json:"-"`
}

type Service struct {
	identities IdentityStore
	sessions   SessionStore
	logger     *zap.Logger
}

func NewService(identities IdentityStore, sessions SessionStore, logger *zap.Logger) *Service {
	return &Service{identities: identities, sessions: sessions, logger: logger}
}

// dummyHash keeps unknown-email sign-ins as slow as wrong-password ones.
var dummyHash, _ = HashPassword("not-a-real-password")

func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	ident, err := s.identities.IdentityByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		CheckPassword(dummyHash, password)
		metrics.RecordAuth("unknown_email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if !CheckPassword(ident.PasswordHash, password) {
		metrics.RecordAuth("bad_password")
		return nil, ErrInvalidCredentials
	}

	sess, err := s.issue(ctx, ident)
	if err != nil {
		return nil, err
	}
	metrics.RecordAuth("signed_in")
	s.logger.Info("identity signed in", zap.String("user_id", ident.ID.String()))
	return sess, nil
}

func (s *Service) issue(ctx context.Context, ident *model.Identity) (*Session, error) {
	sid := uuid.NewString()
	token, expires, err := GenerateToken(ident.ID, ident.Email, sid)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if err := s.sessions.Save(ctx, sid, ident.ID, time.Until(expires)); err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, ExpiresAt: expires, UserID: ident.ID, SessionID: sid}, nil
}

// CreateUser registers a new identity. It is the administrative path used
// by company signup; it does not sign the user in.
func (s *Service) CreateUser(ctx context.Context, email, password string) (*model.Identity, error) {
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	ident := &model.Identity{Email: strings.ToLower(strings.TrimSpace(email)), PasswordHash: hash}
	if err := s.identities.CreateIdentity(ctx, ident); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("identity created", zap.String("user_id", ident.ID.String()))
	return ident, nil
}

// DeleteUser removes an identity created by CreateUser, freeing its email.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.identities.DeleteIdentity(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("identity deleted", zap.String("user_id", id.String()))
	return nil
}

// Authenticate validates the token and checks that its session is live.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := ValidateToken(token)
	if err != nil {
		metrics.RecordAuth("invalid_token")
		return nil, err
	}
	ok, err := s.sessions.Exists(ctx, claims.SessionID())
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.RecordAuth("revoked_token")
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

func (s *Service) SignOut(ctx context.Context, claims *Claims) error {
	if err := s.sessions.Delete(ctx, claims.SessionID()); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	metrics.RecordAuth("signed_out")
	return nil
}

// Refresh rotates the session: the old session id is revoked and a new
// token is issued.
func (s *Service) Refresh(ctx context.Context, claims *Claims) (*Session, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	ident, err := s.identities.IdentityByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if err := s.sessions.Delete(ctx, claims.SessionID()); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	sess, err := s.issue(ctx, ident)
	if err != nil {
		return nil, err
	}
	metrics.RecordAuth("refreshed")
	return sess, nil
}
