// Package session keeps the signed-in identity and its tenant profile for
// the lifetime of a client process.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/role"
)

type EventType int

const (
	SignedIn EventType = iota + 1
	SignedOut
	TokenRefreshed
)

func (t EventType) String() string {
	switch t {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	case TokenRefreshed:
		return "token_refreshed"
	default:
		return "unknown"
	}
}

// AuthEvent is one auth-state change reported by the auth service.
type AuthEvent struct {
	Type   EventType
	UserID uuid.UUID
}

// AuthClient is the auth service as seen from a client.
type AuthClient interface {
	// GetSession reports the identity of a stored session, if any.
	GetSession(ctx context.Context) (uuid.UUID, bool, error)
	SignInWithPassword(ctx context.Context, email, password string) (uuid.UUID, error)
	SignOut(ctx context.Context) error
	// Subscribe returns the auth-state stream and a func that ends it.
	Subscribe() (<-chan AuthEvent, func())
}

// ProfileSource loads the tenant profile view for an identity.
type ProfileSource interface {
	LoadUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

// Result is the outcome of Login. Failures carry the upstream message.
type Result struct {
	Success bool
	Error   string
}

// Resolver is the application-scoped identity context. It is written only
// by its own methods and by the single event consumer started in Start.
type Resolver struct {
	auth     AuthClient
	profiles ProfileSource
	logger   *zap.Logger

	mu   sync.RWMutex
	user *model.User

	unsubscribe func()
	done        chan struct{}
}

func New(auth AuthClient, profiles ProfileSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{auth: auth, profiles: profiles, logger: logger}
}

// Start restores an existing session and begins consuming auth events
// until ctx is done or Close is called.
func (r *Resolver) Start(ctx context.Context) {
	userID, ok, err := r.auth.GetSession(ctx)
	if err != nil {
		r.logger.Warn("session lookup failed", zap.Error(err))
	}
	if ok {
		r.reload(ctx, userID)
	} else {
		r.set(nil)
	}

	events, unsubscribe := r.auth.Subscribe()
	r.unsubscribe = unsubscribe
	r.done = make(chan struct{})
	go r.run(ctx, events)
}

// run applies events strictly in arrival order; the last one wins.
func (r *Resolver) run(ctx context.Context, events <-chan AuthEvent) {
	defer close(r.done)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.apply(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Resolver) apply(ctx context.Context, ev AuthEvent) {
	r.logger.Debug("auth event", zap.Stringer("type", ev.Type), zap.String("user_id", ev.UserID.String()))
	switch ev.Type {
	case SignedIn, TokenRefreshed:
		r.reload(ctx, ev.UserID)
	case SignedOut:
		r.set(nil)
	}
}

func (r *Resolver) reload(ctx context.Context, userID uuid.UUID) bool {
	u, err := r.profiles.LoadUser(ctx, userID)
	if err != nil {
		r.logger.Warn("profile load failed", zap.String("user_id", userID.String()), zap.Error(err))
		r.set(nil)
		return false
	}
	r.set(u)
	return true
}

func (r *Resolver) set(u *model.User) {
	r.mu.Lock()
	r.user = u
	r.mu.Unlock()
}

// Login signs in through the auth service and loads the profile. It never
// returns an error; failures are reported in Result.
func (r *Resolver) Login(ctx context.Context, email, password string) Result {
	userID, err := r.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Result{Error: err.Error()}
	}
	if !r.reload(ctx, userID) {
		return Result{Error: "profile not found for this account"}
	}
	return Result{Success: true}
}

// Logout signs out and clears the identity once the auth service agrees.
func (r *Resolver) Logout(ctx context.Context) error {
	if err := r.auth.SignOut(ctx); err != nil {
		return err
	}
	r.set(nil)
	return nil
}

// Close stops the event consumer and waits for it to exit.
func (r *Resolver) Close() {
	if r.unsubscribe == nil {
		return
	}
	r.unsubscribe()
	<-r.done
	r.unsubscribe = nil
}

// User returns the current view and whether anyone is signed in.
func (r *Resolver) User() (model.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.user == nil {
		return model.User{}, false
	}
	return *r.user, true
}

func (r *Resolver) Profile() *model.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.user == nil {
		return nil
	}
	return r.user.Profile()
}

func (r *Resolver) IsAuthenticated() bool {
	_, ok := r.User()
	return ok
}

func (r *Resolver) HasRequiredRole(roles ...role.Role) bool {
	return role.HasRequiredRole(r.Profile(), roles...)
}

func (r *Resolver) HasMinimumRole(min role.Role) bool {
	return role.HasMinimumRole(r.Profile(), min)
}
