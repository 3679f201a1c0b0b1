package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lebensmittel/cli/internal/keystore"
	"github.com/lebensmittel/cli/internal/model"
)

// Keystore record names. Each is an independently replaceable record; only
// the Manager writes them.
const (
	tokensKey      = "tokens"
	userKey        = "user"
	activeGroupKey = "activeGroup"
)

// Manager owns the access/refresh token pair and the current user/group
// identity. One Manager is constructed at startup and passed by reference
// to every collaborator that needs it; there is no package-level instance.
//
// All mutable state sits behind one mutex. Refresh is single-flight:
// concurrent callers share the in-flight result instead of issuing a
// second network round trip.
type Manager struct {
	baseURL string
	client  *http.Client
	store   *keystore.Store
	now     func() time.Time

	mu            sync.Mutex
	tokens        *Tokens
	user          *model.User
	activeGroupID string
	inflight      *refreshCall
}

type refreshCall struct {
	done   chan struct{}
	tokens Tokens
	err    error
}

// NewManager creates a session manager talking to the API at baseURL
// (including the /api prefix). A nil client falls back to a default with a
// 30 second timeout.
func NewManager(store *keystore.Store, baseURL string, client *http.Client) *Manager {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Manager{
		baseURL: baseURL,
		client:  client,
		store:   store,
		now:     time.Now,
	}
}

// BaseURL returns the API base URL the manager was configured with.
func (m *Manager) BaseURL() string {
	return m.baseURL
}

type authResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    *time.Time  `json:"expires_at"`
	User         *model.User `json:"user"`
}

// Login exchanges credentials for a token pair and persists both the pair
// and the user record.
func (m *Manager) Login(ctx context.Context, username, password string) (*model.User, Tokens, error) {
	return m.authenticate(ctx, "/login", map[string]string{
		"username": username,
		"password": password,
	})
}

// Register creates an account. The server auto-logs the new user in, so
// this persists a token pair just like Login.
func (m *Manager) Register(ctx context.Context, username, password, displayName string) (*model.User, Tokens, error) {
	return m.authenticate(ctx, "/register", map[string]string{
		"username":    username,
		"password":    password,
		"displayName": displayName,
	})
}

func (m *Manager) authenticate(ctx context.Context, path string, payload any) (*model.User, Tokens, error) {
	status, body, err := m.postJSON(ctx, path, payload)
	if err != nil {
		return nil, Tokens{}, &NetworkError{Message: err.Error()}
	}

	if status < 200 || status > 299 {
		return nil, Tokens{}, serverError(status, body)
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.AccessToken == "" || resp.User == nil {
		return nil, Tokens{}, ErrInvalidResponse
	}

	tokens := Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(userKey, resp.User); err != nil {
		return nil, Tokens{}, fmt.Errorf("failed to persist user: %w", err)
	}
	if err := m.store.Save(tokensKey, tokens); err != nil {
		return nil, Tokens{}, fmt.Errorf("failed to persist tokens: %w", err)
	}
	m.user = resp.User
	m.tokens = &tokens

	log.Debug().Str("username", resp.User.Username).Msg("session established")

	return resp.User, tokens, nil
}

// AccessToken returns a usable access token, refreshing the pair first when
// the cached one is missing or about to expire.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	tokens, err := m.loadTokensLocked()
	if err == nil && tokens != nil && !tokenExpired(tokens.AccessToken, m.now()) {
		access := tokens.AccessToken
		m.mu.Unlock()
		return access, nil
	}
	m.mu.Unlock()

	if err != nil {
		return "", err
	}

	refreshed, err := m.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Refresh exchanges the stored refresh token for a new pair. At most one
// refresh is in flight per Manager; concurrent callers await and share its
// result. A server rejection clears the stored pair before returning
// ErrRefreshFailed.
func (m *Manager) Refresh(ctx context.Context) (Tokens, error) {
	m.mu.Lock()
	if call := m.inflight; call != nil {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.tokens, call.err
		case <-ctx.Done():
			return Tokens{}, ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	m.mu.Unlock()

	call.tokens, call.err = m.doRefresh(ctx)

	m.mu.Lock()
	// Logout may have already detached this call; only clear our own handle.
	if m.inflight == call {
		m.inflight = nil
	}
	m.mu.Unlock()
	close(call.done)

	return call.tokens, call.err
}

func (m *Manager) doRefresh(ctx context.Context) (Tokens, error) {
	m.mu.Lock()
	tokens, err := m.loadTokensLocked()
	m.mu.Unlock()
	if err != nil {
		return Tokens{}, err
	}
	if tokens == nil || tokens.RefreshToken == "" {
		return Tokens{}, ErrNoRefreshToken
	}

	status, body, err := m.postJSON(ctx, "/refresh", map[string]string{
		"refresh_token": tokens.RefreshToken,
	})
	if err != nil {
		return Tokens{}, &NetworkError{Message: err.Error()}
	}

	if status < 200 || status > 299 {
		log.Warn().Int("status", status).Msg("refresh rejected, clearing stored tokens")
		if err := m.clearTokens(); err != nil {
			log.Error().Err(err).Msg("failed to clear tokens after rejected refresh")
		}
		return Tokens{}, ErrRefreshFailed
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.AccessToken == "" {
		return Tokens{}, ErrInvalidResponse
	}

	newTokens := Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(tokensKey, newTokens); err != nil {
		return Tokens{}, fmt.Errorf("failed to persist tokens: %w", err)
	}
	m.tokens = &newTokens

	log.Debug().Msg("access token refreshed")

	return newTokens, nil
}

// IsAuthenticated reports whether a token pair is cached and its access
// token is still usable. It never triggers a refresh or a network call.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.loadTokensLocked()
	if err != nil || tokens == nil {
		return false
	}
	return !tokenExpired(tokens.AccessToken, m.now())
}

// CurrentUser returns the cached user record, or ErrNotAuthenticated when
// none is stored.
func (m *Manager) CurrentUser() (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.user != nil {
		return m.user, nil
	}

	var user model.User
	if err := m.store.Load(userKey, &user); err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	m.user = &user
	return m.user, nil
}

// Logout clears the persisted tokens, user and active group, and detaches
// any in-flight refresh so subsequent attempts start fresh. In-flight REST
// calls are not cancelled; their late writes lose to the clear because the
// keystore record is replaced whole each time.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens = nil
	m.user = nil
	m.activeGroupID = ""
	m.inflight = nil

	return errors.Join(
		m.store.Delete(tokensKey),
		m.store.Delete(userKey),
		m.store.Delete(activeGroupKey),
	)
}

// SetActiveGroup caches the active group id locally. An empty id clears the
// cache. The server is not told; it tracks the active group itself.
func (m *Manager) SetActiveGroup(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		m.activeGroupID = ""
		return m.store.Delete(activeGroupKey)
	}

	if err := m.store.Save(activeGroupKey, id); err != nil {
		return err
	}
	m.activeGroupID = id
	return nil
}

// ActiveGroupID returns the locally cached active group id, fetching it
// from the server and caching the result when absent. The cache is only an
// optimization; the server stays the source of truth.
func (m *Manager) ActiveGroupID(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.activeGroupID != "" {
		id := m.activeGroupID
		m.mu.Unlock()
		return id, nil
	}

	var cached string
	err := m.store.Load(activeGroupKey, &cached)
	if err == nil && cached != "" {
		m.activeGroupID = cached
		m.mu.Unlock()
		return cached, nil
	}
	m.mu.Unlock()
	if err != nil && !errors.Is(err, keystore.ErrNotFound) {
		return "", err
	}

	id, err := m.fetchActiveGroup(ctx)
	if err != nil {
		return "", err
	}
	if id != "" {
		if err := m.SetActiveGroup(id); err != nil {
			return "", err
		}
	}
	return id, nil
}

func (m *Manager) fetchActiveGroup(ctx context.Context) (string, error) {
	token, err := m.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/users/me/active-group", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", &NetworkError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", ErrInvalidResponse
	}

	var payload struct {
		GroupID string `json:"groupId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", ErrInvalidResponse
	}
	return payload.GroupID, nil
}

// loadTokensLocked returns the cached token pair, reading through to the
// keystore on first use. Caller must hold m.mu. A missing record is (nil,
// nil), not an error.
func (m *Manager) loadTokensLocked() (*Tokens, error) {
	if m.tokens != nil {
		return m.tokens, nil
	}

	var tokens Tokens
	if err := m.store.Load(tokensKey, &tokens); err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	m.tokens = &tokens
	return m.tokens, nil
}

func (m *Manager) clearTokens() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = nil
	return m.store.Delete(tokensKey)
}

func (m *Manager) postJSON(ctx context.Context, path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// serverError surfaces the server-provided error message when the body
// carries one, falling back to ErrInvalidResponse.
func serverError(status int, body []byte) error {
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return fmt.Errorf("server returned %d: %s", status, resp.Error)
	}
	return ErrInvalidResponse
}
