// Package client talks to the CRM HTTP API. It implements the auth and
// profile sources a session.Resolver runs on.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/session"
)

// APIError is a non-2xx response. Message is the server's error text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        model.User `json:"user"`
}

type Company struct {
	Tenant model.Tenant  `json:"tenant"`
	Admin  model.Profile `json:"admin"`
}

type Client struct {
	http      *resty.Client
	tokenPath string
	logger    *zap.Logger

	mu    sync.Mutex
	token *token
	subs  map[*subscription]struct{}
}

// New returns a client for baseURL. When tokenPath is set the access token
// survives process restarts there. Requests are never retried.
func New(baseURL, tokenPath string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:      httpClient,
		tokenPath: tokenPath,
		logger:    logger,
		subs:      make(map[*subscription]struct{}),
	}
}

func (c *Client) currentToken() (*token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != nil {
		return c.token, nil
	}
	if c.tokenPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.tokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var t token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	c.token = &t
	return c.token, nil
}

func (c *Client) storeToken(t *token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = t
	if c.tokenPath == "" {
		return nil
	}
	if t == nil {
		if err := os.Remove(c.tokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.tokenPath), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(c.tokenPath, data, 0o600)
}

// request builds an authorised request. It fails when nobody is signed in.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	t, err := c.currentToken()
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: "not signed in"}
	}
	return c.http.R().SetContext(ctx).SetAuthToken(t.AccessToken), nil
}

func (c *Client) do(req *resty.Request, method, path string, out any) error {
	var apiErr errorBody
	req.SetError(&apiErr)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = resp.Status()
		}
		for field, m := range apiErr.Fields {
			msg += fmt.Sprintf("; %s %s", field, m)
		}
		c.logger.Debug("api error", zap.String("path", path), zap.Int("status", resp.StatusCode()), zap.String("error", msg))
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// GetSession reports the user behind the stored token. An expired or
// revoked token is discarded.
func (c *Client) GetSession(ctx context.Context) (uuid.UUID, bool, error) {
	t, err := c.currentToken()
	if err != nil || t == nil {
		return uuid.Nil, false, err
	}
	u, err := c.CurrentUser(ctx)
	if isUnauthorized(err) {
		return uuid.Nil, false, c.storeToken(nil)
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return u.ID, true, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (uuid.UUID, error) {
	var out loginResponse
	req := c.http.R().SetContext(ctx).SetBody(map[string]string{"email": email, "password": password})
	if err := c.do(req, resty.MethodPost, "/api/auth/login", &out); err != nil {
		return uuid.Nil, err
	}
	if err := c.storeToken(&token{AccessToken: out.AccessToken, ExpiresAt: out.ExpiresAt}); err != nil {
		return uuid.Nil, err
	}
	c.emit(session.AuthEvent{Type: session.SignedIn, UserID: out.User.ID})
	return out.User.ID, nil
}

// SignOut revokes the session server-side. A token the server already
// rejects counts as signed out.
func (c *Client) SignOut(ctx context.Context) error {
	req, err := c.request(ctx)
	if err != nil {
		if isUnauthorized(err) {
			return nil
		}
		return err
	}
	if err := c.do(req, resty.MethodPost, "/api/auth/logout", nil); err != nil && !isUnauthorized(err) {
		return err
	}
	if err := c.storeToken(nil); err != nil {
		return err
	}
	c.emit(session.AuthEvent{Type: session.SignedOut})
	return nil
}

func (c *Client) Refresh(ctx context.Context) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	var out loginResponse
	if err := c.do(req, resty.MethodPost, "/api/auth/refresh", &out); err != nil {
		return err
	}
	if err := c.storeToken(&token{AccessToken: out.AccessToken, ExpiresAt: out.ExpiresAt}); err != nil {
		return err
	}
	c.emit(session.AuthEvent{Type: session.TokenRefreshed, UserID: out.User.ID})
	return nil
}

func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := c.do(req, resty.MethodGet, "/api/auth/session", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// LoadUser returns the profile view for userID, which must be the
// signed-in identity.
func (c *Client) LoadUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u.ID != userID {
		return nil, fmt.Errorf("session belongs to %s, not %s", u.ID, userID)
	}
	return u, nil
}

// CreateCompany signs up a new company. It needs no session.
func (c *Client) CreateCompany(ctx context.Context, name, email, password string) (*Company, error) {
	var out struct {
		Success bool    `json:"success"`
		Company Company `json:"company"`
	}
	req := c.http.R().SetContext(ctx).SetBody(map[string]string{"name": name, "email": email, "password": password})
	if err := c.do(req, resty.MethodPost, "/api/create-company", &out); err != nil {
		return nil, err
	}
	return &out.Company, nil
}

func (c *Client) Companies(ctx context.Context) ([]model.Profile, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var out struct {
		Companies []model.Profile `json:"companies"`
	}
	if err := c.do(req, resty.MethodGet, "/api/get-companies", &out); err != nil {
		return nil, err
	}
	return out.Companies, nil
}

func (c *Client) Leads(ctx context.Context, status, search string) ([]model.Lead, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" {
		req.SetQueryParam("status", status)
	}
	if search != "" {
		req.SetQueryParam("q", search)
	}
	var out struct {
		Data []model.Lead `json:"data"`
	}
	if err := c.do(req, resty.MethodGet, "/api/leads", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

const subscriptionBuffer = 8

type subscription struct {
	mu     sync.RWMutex
	ch     chan session.AuthEvent
	closed bool
}

// Subscribe returns the stream of auth-state changes made through this
// client. Events are delivered in order. A subscriber that falls
// subscriptionBuffer events behind misses the newer ones rather than
// stalling the caller. The returned func ends the stream and closes the
// channel.
func (c *Client) Subscribe() (<-chan session.AuthEvent, func()) {
	sub := &subscription{ch: make(chan session.AuthEvent, subscriptionBuffer)}
	c.mu.Lock()
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, sub)
			c.mu.Unlock()

			sub.mu.Lock()
			sub.closed = true
			close(sub.ch)
			sub.mu.Unlock()
		})
	}
}

func (c *Client) emit(ev session.AuthEvent) {
	c.mu.Lock()
	subs := make([]*subscription, 0, len(c.subs))
	for sub := range c.subs {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.mu.RLock()
		if !sub.closed {
			select {
			case sub.ch <- ev:
			default:
				c.logger.Warn("auth event dropped, subscriber is not reading",
					zap.Stringer("event", ev.Type), zap.String("user_id", ev.UserID.String()))
			}
		}
		sub.mu.RUnlock()
	}
}
