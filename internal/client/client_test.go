package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/role"
	"multi-tenant-crm/internal/session"
)

// fakeServer mimics the CRM auth endpoints for a single account.
type fakeServer struct {
	mu      sync.Mutex
	user    model.User
	tokens  map[string]bool
	hits    atomic.Int32
	failAll bool
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	fs := &fakeServer{
		user: model.User{
			ID: uuid.New(), Email: "mgr@acme.test", FullName: "Mgr", Role: string(role.Manager),
			IsActive: true, TenantID: uuid.New(), TenantName: "Acme",
		},
		tokens: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid login credentials"})
			return
		}
		tok := uuid.NewString()
		fs.mu.Lock()
		fs.tokens[tok] = true
		fs.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"access_token": tok, "expires_at": time.Now().Add(time.Hour), "user": fs.user})
	})
	mux.HandleFunc("/api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		if !fs.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, fs.user)
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if !fs.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		fs.revokeAll()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/leads", func(w http.ResponseWriter, r *http.Request) {
		if !fs.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []model.Lead{{ID: uuid.New(), Name: r.URL.Query().Get("status")}}})
	})
	mux.HandleFunc("/api/create-company", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": map[string]string{"email": "must be a valid email address"},
		})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.hits.Add(1)
		if fs.failAll {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *fakeServer) authorized(r *http.Request) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
}

func (fs *fakeServer) revokeAll() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.tokens = map[string]bool{}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSignInPersistsTokenAndEmits(t *testing.T) {
	fs, srv := newFakeServer(t)
	path := filepath.Join(t.TempDir(), "crm", "token.json")
	c := New(srv.URL, path, zap.NewNop())
	ctx := context.Background()

	events, stop := c.Subscribe()
	defer stop()

	id, err := c.SignInWithPassword(ctx, fs.user.Email, "secret123")
	require.NoError(t, err)
	assert.Equal(t, fs.user.ID, id)

	select {
	case ev := <-events:
		assert.Equal(t, session.SignedIn, ev.Type)
		assert.Equal(t, fs.user.ID, ev.UserID)
	case <-time.After(time.Second):
		t.Fatal("no sign-in event")
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A fresh client picks the session up from disk.
	again := New(srv.URL, path, zap.NewNop())
	got, ok, err := again.GetSession(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fs.user.ID, got)
}

func TestSignInSurfacesServerMessage(t *testing.T) {
	fs, srv := newFakeServer(t)
	c := New(srv.URL, "", nil)

	_, err := c.SignInWithPassword(context.Background(), fs.user.Email, "wrong")
	require.Error(t, err)
	assert.Equal(t, "invalid login credentials", err.Error())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestValidationFieldsAreReported(t *testing.T) {
	_, srv := newFakeServer(t)
	c := New(srv.URL, "", nil)

	_, err := c.CreateCompany(context.Background(), "Acme", "nope", "secret123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "email must be a valid email address")
}

func TestRevokedTokenIsDiscarded(t *testing.T) {
	fs, srv := newFakeServer(t)
	path := filepath.Join(t.TempDir(), "token.json")
	c := New(srv.URL, path, nil)
	ctx := context.Background()

	_, err := c.SignInWithPassword(ctx, fs.user.Email, "secret123")
	require.NoError(t, err)
	fs.revokeAll()

	_, ok, err := c.GetSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNoRetries(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.failAll = true
	c := New(srv.URL, "", nil)

	_, err := c.SignInWithPassword(context.Background(), fs.user.Email, "secret123")
	require.Error(t, err)
	assert.Equal(t, int32(1), fs.hits.Load())
}

func TestLeadsRequiresSession(t *testing.T) {
	fs, srv := newFakeServer(t)
	c := New(srv.URL, "", nil)
	ctx := context.Background()

	_, err := c.Leads(ctx, "New", "")
	assert.True(t, isUnauthorized(err))
	assert.Zero(t, fs.hits.Load(), "no request without a token")

	_, err = c.SignInWithPassword(ctx, fs.user.Email, "secret123")
	require.NoError(t, err)
	leads, err := c.Leads(ctx, "New", "")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "New", leads[0].Name)
}

func TestResolverOverClient(t *testing.T) {
	fs, srv := newFakeServer(t)
	c := New(srv.URL, "", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := session.New(c, c, zap.NewNop())
	r.Start(ctx)
	defer r.Close()

	assert.False(t, r.IsAuthenticated())
	assert.False(t, r.HasRequiredRole(role.Manager))

	res := r.Login(ctx, fs.user.Email, "secret123")
	require.True(t, res.Success, res.Error)
	assert.True(t, r.HasRequiredRole(role.Manager))
	assert.True(t, r.HasMinimumRole(role.Agent))
	assert.False(t, r.HasMinimumRole(role.Admin))

	require.NoError(t, r.Logout(ctx))
	assert.Eventually(t, func() bool { return !r.IsAuthenticated() }, time.Second, 10*time.Millisecond)
}

func TestUnsubscribeClosesStream(t *testing.T) {
	c := New("http://127.0.0.1:0", "", nil)
	events, stop := c.Subscribe()
	stop()
	stop()

	_, open := <-events
	assert.False(t, open)
	c.emit(session.AuthEvent{Type: session.SignedOut})
}

func TestEmitNeverBlocksOnIdleSubscriber(t *testing.T) {
	c := New("http://127.0.0.1:0", "", nil)
	events, stop := c.Subscribe()
	defer stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriptionBuffer*4; i++ {
			c.emit(session.AuthEvent{Type: session.TokenRefreshed})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked on a subscriber that is not reading")
	}

	assert.Len(t, events, subscriptionBuffer)
	first := <-events
	assert.Equal(t, session.TokenRefreshed, first.Type)
}
