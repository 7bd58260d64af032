package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Manager is the single source of truth for who is authenticated. It
// keeps one Session per live actor, delegates authentication to the
// identity provider, and keeps its registry in sync with provider auth
// events until Close is called.
//
// Manager is the only writer of session state. All mutations of a
// session's User view go through Apply as read-modify-write merges, so a
// concurrently resolved profile field is never clobbered; when two
// writers race, the last merge wins field by field.
type Manager struct {
	provider IdentityProvider

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	onAuthenticated func(uuid.UUID)
	unsubscribe     func()
}

func NewManager(provider IdentityProvider) *Manager {
	m := &Manager{
		provider: provider,
		sessions: make(map[uuid.UUID]*Session),
	}
	m.unsubscribe = provider.OnAuthStateChange(m.handleEvent)
	return m
}

// SetAuthenticatedHook registers the callback fired whenever a session
// becomes authenticated (login, or initialize finding a live session).
// The profile resolver hangs off this hook.
func (m *Manager) SetAuthenticatedHook(fn func(userID uuid.UUID)) {
	m.onAuthenticated = fn
}

// Close tears down the auth-event subscription.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Manager) handleEvent(ev AuthEvent) {
	switch ev.Type {
	case EventSignedOut:
		m.mu.Lock()
		delete(m.sessions, ev.UserID)
		m.mu.Unlock()
	case EventSignedIn, EventTokenRefreshed:
		m.register(Identity{UserID: ev.UserID, Email: ev.Email}, false)
	}
}

// Initialize resolves an existing session from an access token. When the
// provider reports no live session the returned Session is simply
// unauthenticated; that is not an error.
func (m *Manager) Initialize(ctx context.Context, accessToken string) (Session, error) {
	identity, err := m.provider.GetSession(ctx, accessToken)
	if err != nil {
		return Session{}, err
	}
	if identity == nil {
		return Session{Authenticated: false}, nil
	}
	s := m.register(*identity, true)
	return s, nil
}

// Login delegates to the identity provider. On failure the provider's
// error is returned and no session is registered. Concurrent logins are
// not coalesced; callers serialize.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, *Credentials, error) {
	identity, creds, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Session{}, nil, err
	}
	s := m.register(*identity, true)
	return s, creds, nil
}

// Logout signs the actor out at the provider. Fail-closed: on provider
// failure the session is left untouched, so the actor stays apparently
// logged in until the call is retried.
func (m *Manager) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if err := m.provider.SignOut(ctx, refreshToken); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return nil
}

// ResetPassword is fire-and-forget; it never surfaces an error beyond
// the boolean.
func (m *Manager) ResetPassword(ctx context.Context, email, redirectTo string) bool {
	if err := m.provider.ResetPasswordForEmail(ctx, email, redirectTo); err != nil {
		slog.Error("password reset request failed", "error", err)
		return false
	}
	return true
}

// Get returns a snapshot of the actor's session.
func (m *Manager) Get(userID uuid.UUID) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session{Authenticated: false}, false
	}
	return *s, true
}

// Apply performs a read-modify-write merge of the session's user view.
// It reports false when no session exists for the actor, which happens
// when a resolve outlives a logout; the write is then dropped.
func (m *Manager) Apply(userID uuid.UUID, merge func(UserView) UserView) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return false
	}
	s.User = merge(s.User)
	return true
}

// register creates or refreshes the session for an identity. Existing
// profile fields on the User view survive re-registration.
func (m *Manager) register(identity Identity, notify bool) Session {
	m.mu.Lock()
	s, ok := m.sessions[identity.UserID]
	if !ok {
		s = &Session{}
		m.sessions[identity.UserID] = s
	}
	s.Authenticated = true
	s.UserID = identity.UserID
	s.Email = identity.Email
	if s.User.Email == "" {
		s.User.Email = identity.Email
	}
	snapshot := *s
	m.mu.Unlock()

	if notify && m.onAuthenticated != nil {
		m.onAuthenticated(identity.UserID)
	}
	return snapshot
}
