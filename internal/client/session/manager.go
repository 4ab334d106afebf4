// Package session owns the authentication session: the token pair, the
// silent-refresh hook, profile and permission state and the multi-step
// login flow. It is the sole writer of the token store.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/fieldcart/backoffice/internal/client/api"
	"github.com/fieldcart/backoffice/internal/client/tokenstore"
	"github.com/fieldcart/backoffice/internal/logger"
	"github.com/fieldcart/backoffice/internal/model"
)

// Profile is the cached user payload from the profile endpoint.
type Profile struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	PhoneNumber      string   `json:"phoneNumber"`
	ManagementAccess bool     `json:"managementAccess"`
	Modules          []string `json:"modules"`
}

// ManagementAccessError reports an account without back-office access.
// The session never becomes authenticated; the caller is expected to
// navigate to the public storefront instead of the admin shell.
type ManagementAccessError struct {
	RedirectURL string
}

func (e *ManagementAccessError) Error() string {
	return "account has no management access"
}

// State is a read-only snapshot of the session.
type State struct {
	IsAuthenticated bool
	User            *Profile
	Permissions     []string
}

// Manager owns the session lifecycle. It implements the API client's
// TokenProvider and Refresher so every outbound request reads tokens
// from here and recovers 401s through here.
type Manager struct {
	api           *api.Client
	store         tokenstore.Store
	storefrontURL string
	logger        *logger.Logger

	mu            sync.Mutex
	refreshMu     sync.Mutex
	authenticated bool
	user          *Profile
	permissions   []string
}

func NewManager(client *api.Client, store tokenstore.Store, storefrontURL string, l *logger.Logger) *Manager {
	m := &Manager{
		api:           client,
		store:         store,
		storefrontURL: storefrontURL,
		logger:        l,
	}
	client.SetTokenProvider(m)
	client.SetRefresher(m)
	return m
}

// AccessToken implements api.TokenProvider.
func (m *Manager) AccessToken() string {
	return m.store.AccessToken()
}

// State returns a snapshot of the current session.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := State{IsAuthenticated: m.authenticated}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	s.Permissions = append(s.Permissions, m.permissions...)
	return s
}

type loginRequest struct {
	Email       string           `json:"email,omitempty"`
	PhoneNumber string           `json:"phoneNumber,omitempty"`
	Password    string           `json:"password,omitempty"`
	RequestOTP  bool             `json:"requestOtp,omitempty"`
	Code        string           `json:"code,omitempty"`
	Type        string           `json:"type,omitempty"`
	DeviceInfo  model.DeviceInfo `json:"deviceInfo"`
}

type authResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	User         Profile `json:"user"`
}

// Login authenticates with an identifier and password. The identifier is
// classified locally first; malformed input never reaches the network.
func (m *Manager) Login(ctx context.Context, identifier, password string, device model.DeviceInfo) (State, error) {
	req, err := identifiedRequest(identifier)
	if err != nil {
		return State{}, err
	}
	req.Password = password
	req.DeviceInfo = device

	return m.authenticate(ctx, "/auth/login", req)
}

// RequestOTP asks the server to send a one-time login code. The caller
// arms the resend cooldown on success.
func (m *Manager) RequestOTP(ctx context.Context, identifier string) error {
	req, err := identifiedRequest(identifier)
	if err != nil {
		return err
	}
	req.RequestOTP = true

	return m.api.Do(ctx, http.MethodPost, "/auth/login", req, nil, nil)
}

// VerifyOTP exchanges a one-time code for a session; on success it
// behaves exactly like Login.
func (m *Manager) VerifyOTP(ctx context.Context, identifier, code string, device model.DeviceInfo) (State, error) {
	req, err := identifiedRequest(identifier)
	if err != nil {
		return State{}, err
	}
	req.Code = code
	req.Type = "LOGIN"
	req.DeviceInfo = device

	return m.authenticate(ctx, "/auth/verify-otp", req)
}

func (m *Manager) authenticate(ctx context.Context, path string, req loginRequest) (State, error) {
	var resp authResponse
	if err := m.api.Do(ctx, http.MethodPost, path, req, &resp, nil); err != nil {
		return State{}, err
	}

	if err := m.store.SetTokens(resp.AccessToken, resp.RefreshToken); err != nil {
		return State{}, fmt.Errorf("failed to persist tokens: %w", err)
	}

	if !resp.User.ManagementAccess {
		m.logger.Warn().Str("user", resp.User.ID).Msg("account has no management access, redirecting to storefront")
		return State{}, &ManagementAccessError{RedirectURL: m.storefrontURL}
	}

	m.mu.Lock()
	m.authenticated = true
	user := resp.User
	m.user = &user
	m.mu.Unlock()

	// Permission resolution failing is not an auth failure; the user
	// simply sees zero accessible modules.
	if _, err := m.FetchPermissions(ctx); err != nil && !errors.Is(err, api.ErrAuthRequired) {
		m.logger.Warn().Err(err).Msg("failed to fetch permissions after login")
	}

	return m.State(), nil
}

// Refresh implements api.Refresher: it exchanges the stored refresh
// token for a new pair. With no token stored it returns false without a
// network call; on failure it clears both tokens, forcing re-login.
// Concurrent callers are serialized so a burst of 401s produces one
// refresh.
func (m *Manager) Refresh(ctx context.Context) bool {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	refresh := m.store.RefreshToken()
	if refresh == "" {
		return false
	}

	var pair model.TokenPair
	err := m.api.Do(ctx, http.MethodPost, "/auth/refresh-token",
		map[string]string{"refreshToken": refresh}, &pair,
		&api.RequestConfig{SkipAuthRefresh: true, SkipErrorHandling: true})
	if err != nil {
		m.logger.Warn().Err(err).Msg("token refresh failed, clearing session")
		m.clearLocal()
		return false
	}

	if err := m.store.SetTokens(pair.AccessToken, pair.RefreshToken); err != nil {
		m.logger.Error().Err(err).Msg("failed to persist refreshed tokens")
		m.clearLocal()
		return false
	}
	return true
}

// Logout clears the local session first and then notifies the server on
// a best-effort basis. A failed server call never leaves stale tokens.
func (m *Manager) Logout(ctx context.Context) {
	refresh := m.store.RefreshToken()
	m.clearLocal()

	if refresh == "" {
		return
	}
	err := m.api.Do(ctx, http.MethodPost, "/auth/logout",
		map[string]string{"refreshToken": refresh}, nil,
		&api.RequestConfig{SkipAuthRefresh: true, SkipErrorHandling: true})
	if err != nil {
		m.logger.Warn().Err(err).Msg("server logout failed, local session already cleared")
	}
}

// FetchProfile loads the profile, marking the session authenticated on
// success. A 401 that survives the client's single silent refresh means
// the session is unrecoverable: it is cleared and ErrAuthRequired is
// returned.
func (m *Manager) FetchProfile(ctx context.Context) (Profile, error) {
	var profile Profile
	err := m.api.Do(ctx, http.MethodGet, "/user/profile", nil, &profile, nil)
	if err != nil {
		if isAuthFailure(err) {
			m.clearLocal()
			return Profile{}, api.ErrAuthRequired
		}
		return Profile{}, err
	}

	m.mu.Lock()
	m.authenticated = true
	m.user = &profile
	m.mu.Unlock()
	return profile, nil
}

type permissionsResponse struct {
	Modules []string `json:"modules"`
}

// FetchPermissions loads the module names the user may access. An auth
// failure clears the session; any other failure leaves it intact and
// the user simply has zero accessible modules.
func (m *Manager) FetchPermissions(ctx context.Context) ([]string, error) {
	var resp permissionsResponse
	err := m.api.Do(ctx, http.MethodGet, "/user/profile/permissions", nil, &resp, nil)
	if err != nil {
		if isAuthFailure(err) {
			m.clearLocal()
			return nil, api.ErrAuthRequired
		}
		return nil, err
	}

	m.mu.Lock()
	m.permissions = resp.Modules
	m.mu.Unlock()
	return resp.Modules, nil
}

// Bootstrap restores a session at process start: with no access token it
// attempts one silent refresh, then loads profile and permissions.
// Returns ErrAuthRequired when no session can be established.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if m.store.AccessToken() == "" {
		if !m.Refresh(ctx) {
			return api.ErrAuthRequired
		}
	}

	if _, err := m.FetchProfile(ctx); err != nil {
		return err
	}
	if _, err := m.FetchPermissions(ctx); err != nil && errors.Is(err, api.ErrAuthRequired) {
		return err
	}
	return nil
}

func (m *Manager) clearLocal() {
	if err := m.store.Clear(); err != nil {
		m.logger.Error().Err(err).Msg("failed to clear token store")
	}
	m.mu.Lock()
	m.authenticated = false
	m.user = nil
	m.permissions = nil
	m.mu.Unlock()
}

func identifiedRequest(identifier string) (loginRequest, error) {
	switch Classify(identifier) {
	case KindEmail:
		return loginRequest{Email: identifier}, nil
	case KindPhone:
		return loginRequest{PhoneNumber: identifier}, nil
	default:
		return loginRequest{}, ErrInvalidIdentifier
	}
}

func isAuthFailure(err error) bool {
	var statusErr *api.StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusUnauthorized
}
