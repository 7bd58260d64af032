package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fabtrack/fabtrack-backend/internal/access"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/fabtrack/fabtrack-backend/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProfileStore returns its queue of results in order, repeating
// the last one.
type scriptedProfileStore struct {
	results []profileResult
	calls   int
}

type profileResult struct {
	profile *models.Profile
	err     error
}

func (s *scriptedProfileStore) SelectProfile(_ context.Context, _ uuid.UUID) (*models.Profile, error) {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	r := s.results[i]
	return r.profile, r.err
}

// fakeTimer records scheduled retries so the test can fire them
// synchronously.
type fakeTimer struct {
	delays    []time.Duration
	callbacks []func()
	cancels   int
}

func (f *fakeTimer) schedule(d time.Duration, fn func()) func() bool {
	f.delays = append(f.delays, d)
	f.callbacks = append(f.callbacks, fn)
	return func() bool {
		f.cancels++
		return true
	}
}

// runNext fires the oldest unfired callback.
func (f *fakeTimer) runNext(t *testing.T) {
	require.NotEmpty(t, f.callbacks)
	fn := f.callbacks[0]
	f.callbacks = f.callbacks[1:]
	fn()
}

type resolverFixture struct {
	resolver *ProfileResolver
	sessions *session.Manager
	store    *scriptedProfileStore
	timer    *fakeTimer
	userID   uuid.UUID
}

// resolverIdentity is a minimal in-test identity boundary so the manager
// can hold a session for the resolver to merge into.
type resolverIdentity struct{ id session.Identity }

func (r *resolverIdentity) GetSession(context.Context, string) (*session.Identity, error) {
	return &r.id, nil
}
func (r *resolverIdentity) SignInWithPassword(context.Context, string, string) (*session.Identity, *session.Credentials, error) {
	return &r.id, &session.Credentials{}, nil
}
func (r *resolverIdentity) SignOut(context.Context, string) error { return nil }

func (r *resolverIdentity) ResetPasswordForEmail(context.Context, string, string) error {
	return nil
}

func (r *resolverIdentity) OnAuthStateChange(func(session.AuthEvent)) func() { return func() {} }

func newResolverFixture(t *testing.T, results ...profileResult) *resolverFixture {
	userID := uuid.New()
	provider := &resolverIdentity{id: session.Identity{UserID: userID, Email: "worker@shop.test"}}
	sessions := session.NewManager(provider)
	t.Cleanup(sessions.Close)

	_, err := sessions.Initialize(context.Background(), "token")
	require.NoError(t, err)

	store := &scriptedProfileStore{results: results}
	timer := &fakeTimer{}
	r := NewProfileResolver(store, sessions)
	r.schedule = timer.schedule

	return &resolverFixture{resolver: r, sessions: sessions, store: store, timer: timer, userID: userID}
}

func profileRow(role string) *models.Profile {
	return &models.Profile{
		UserID:    uuid.New(),
		FirstName: "Rosa",
		LastName:  "Vega",
		Role:      role,
		WorkArea:  "weldingLabor",
	}
}

func TestFetchProfileSuccessMergesIntoSession(t *testing.T) {
	f := newResolverFixture(t, profileResult{profile: profileRow("Lead Welder")})

	p, err := f.resolver.FetchProfile(context.Background(), f.userID, false)
	require.NoError(t, err)
	require.NotNil(t, p)

	s, ok := f.sessions.Get(f.userID)
	require.True(t, ok)
	assert.Equal(t, "Rosa", s.User.FirstName)
	assert.Equal(t, access.RoleLeadWelder, s.User.Role)
	assert.Equal(t, "weldingLabor", s.User.WorkArea)
	// Profile omitted email: the identity email survives the merge.
	assert.Equal(t, "worker@shop.test", s.User.Email)
}

func TestFetchProfileStopsAfterThreeEmptyLookups(t *testing.T) {
	f := newResolverFixture(t, profileResult{})

	// Attempt 1: empty row, retry scheduled at the base delay.
	_, err := f.resolver.FetchProfile(context.Background(), f.userID, false)
	assert.ErrorIs(t, err, ErrProfilePending)
	require.Len(t, f.timer.delays, 1)
	assert.Equal(t, 1*time.Second, f.timer.delays[0])

	// Attempt 2 (fired by the timer): backoff doubles.
	f.timer.runNext(t)
	require.Len(t, f.timer.delays, 2)
	assert.Equal(t, 2*time.Second, f.timer.delays[1])

	// Attempt 3: exhausted. No further retry is scheduled.
	f.timer.runNext(t)
	assert.Empty(t, f.timer.callbacks, "no retry after exhaustion")
	assert.Len(t, f.timer.delays, 2)
	assert.Equal(t, 3, f.store.calls, "exactly three lookups")

	// Session stays authenticated with no role.
	s, ok := f.sessions.Get(f.userID)
	require.True(t, ok)
	assert.True(t, s.Authenticated)
	assert.Equal(t, access.RoleUnknown, s.User.Role)

	// Further plain fetches stay exhausted without scheduling.
	_, err = f.resolver.FetchProfile(context.Background(), f.userID, false)
	assert.ErrorIs(t, err, ErrProfileMissing)
	assert.Empty(t, f.timer.callbacks)
}

func TestFetchProfileForceRefreshResetsCounter(t *testing.T) {
	f := newResolverFixture(t, profileResult{})

	// Exhaust the retries.
	_, _ = f.resolver.FetchProfile(context.Background(), f.userID, false)
	f.timer.runNext(t)
	f.timer.runNext(t)
	require.Equal(t, 3, f.store.calls)

	// Force refresh starts the cycle over from zero: the next empty
	// lookup schedules at the base delay again.
	_, err := f.resolver.FetchProfile(context.Background(), f.userID, true)
	assert.ErrorIs(t, err, ErrProfilePending)
	require.Len(t, f.timer.delays, 3)
	assert.Equal(t, 1*time.Second, f.timer.delays[2])
}

func TestFetchProfileForceRefreshRecovers(t *testing.T) {
	f := newResolverFixture(t,
		profileResult{}, profileResult{}, profileResult{},
		profileResult{profile: profileRow("Master Admin")},
	)

	_, _ = f.resolver.FetchProfile(context.Background(), f.userID, false)
	f.timer.runNext(t)
	f.timer.runNext(t)

	p, err := f.resolver.FetchProfile(context.Background(), f.userID, true)
	require.NoError(t, err)
	require.NotNil(t, p)

	s, _ := f.sessions.Get(f.userID)
	assert.Equal(t, access.RoleMasterAdmin, s.User.Role)
}

func TestFetchProfileSuccessCancelsPendingRetry(t *testing.T) {
	f := newResolverFixture(t,
		profileResult{},
		profileResult{profile: profileRow("Sewer")},
	)

	// First fetch schedules a retry.
	_, err := f.resolver.FetchProfile(context.Background(), f.userID, false)
	require.ErrorIs(t, err, ErrProfilePending)
	require.Zero(t, f.timer.cancels)

	// A successful forced refresh stops the pending timer.
	_, err = f.resolver.FetchProfile(context.Background(), f.userID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, f.timer.cancels)
}

func TestFetchProfileLookupErrorKeepsSessionAuthenticated(t *testing.T) {
	f := newResolverFixture(t, profileResult{err: errors.New("connection refused")})

	_, err := f.resolver.FetchProfile(context.Background(), f.userID, false)
	require.Error(t, err)
	assert.Empty(t, f.timer.callbacks, "lookup errors are not retried on a timer")

	s, ok := f.sessions.Get(f.userID)
	require.True(t, ok)
	assert.True(t, s.Authenticated)
	assert.Equal(t, access.RoleUnknown, s.User.Role)
}

func TestRole(t *testing.T) {
	f := newResolverFixture(t, profileResult{profile: profileRow("Front Office")})

	// First call resolves through the store; the merged session view
	// answers afterwards.
	assert.Equal(t, access.RoleFrontOffice, f.resolver.Role(context.Background(), f.userID))
	assert.Equal(t, access.RoleFrontOffice, f.resolver.Role(context.Background(), f.userID))
	assert.Equal(t, 1, f.store.calls)
}

func TestRoleUnknownWhileProfileMissing(t *testing.T) {
	f := newResolverFixture(t, profileResult{})
	assert.Equal(t, access.RoleUnknown, f.resolver.Role(context.Background(), f.userID))
}

func TestBackoffDelayCap(t *testing.T) {
	assert.Equal(t, 1*time.Second, backoffDelay(0))
	assert.Equal(t, 2*time.Second, backoffDelay(1))
	assert.Equal(t, 4*time.Second, backoffDelay(2))
	assert.Equal(t, 8*time.Second, backoffDelay(3))
	assert.Equal(t, 10*time.Second, backoffDelay(4), "capped at 10s")
	assert.Equal(t, 10*time.Second, backoffDelay(10))
}
