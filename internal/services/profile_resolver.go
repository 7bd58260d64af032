package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fabtrack/fabtrack-backend/internal/access"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/fabtrack/fabtrack-backend/internal/session"
	"github.com/google/uuid"
)

var (
	// ErrProfilePending: no row yet, a delayed retry has been scheduled.
	ErrProfilePending = errors.New("profile not available yet, retry scheduled")
	// ErrProfileMissing: retries exhausted, running without profile data.
	ErrProfileMissing = errors.New("profile not found after retries")
)

const (
	maxProfileRetries = 3
	retryBaseDelay    = 1000 * time.Millisecond
	retryMaxDelay     = 10 * time.Second
)

// ProfileStore is the lookup boundary the resolver reads through.
// SelectProfile returns (nil, nil) when no row exists.
type ProfileStore interface {
	SelectProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type retryPhase int

const (
	retryIdle retryPhase = iota
	retryWaiting
	retryExhausted
)

type retryState struct {
	phase  retryPhase
	count  int
	cancel func() bool
	warned bool
}

// ProfileResolver enriches authenticated sessions with profile
// attributes. A profile row may not exist yet right after account
// creation, so empty lookups retry on an exponential backoff before the
// resolver settles into a degraded, still-authenticated state.
//
// Retries run on delayed timers. A forced refresh resets the counter but
// deliberately does not cancel an in-flight timer; the two fetches race
// and the last merge into the session wins.
type ProfileResolver struct {
	store    ProfileStore
	sessions *session.Manager

	// schedule is swappable so tests can drive timers synchronously.
	schedule func(d time.Duration, fn func()) (cancel func() bool)

	mu     sync.Mutex
	states map[uuid.UUID]*retryState
}

func NewProfileResolver(store ProfileStore, sessions *session.Manager) *ProfileResolver {
	return &ProfileResolver{
		store:    store,
		sessions: sessions,
		schedule: func(d time.Duration, fn func()) func() bool {
			t := time.AfterFunc(d, fn)
			return t.Stop
		},
		states: make(map[uuid.UUID]*retryState),
	}
}

// FetchProfile looks the profile up once and merges it into the actor's
// session view. forceRefresh resets the retry counter before the
// attempt.
func (r *ProfileResolver) FetchProfile(ctx context.Context, userID uuid.UUID, forceRefresh bool) (*models.Profile, error) {
	st := r.state(userID)

	if forceRefresh {
		r.mu.Lock()
		st.count = 0
		st.phase = retryIdle
		st.warned = false
		r.mu.Unlock()
	}

	profile, err := r.store.SelectProfile(ctx, userID)
	if err != nil {
		slog.Error("profile lookup failed", "user_id", userID.String(), "error", err)
		return nil, err
	}

	if profile == nil {
		return nil, r.scheduleRetry(userID, st)
	}

	// A pending retry is now pointless; stop its timer.
	r.mu.Lock()
	if st.cancel != nil {
		st.cancel()
		st.cancel = nil
	}
	st.count = 0
	st.phase = retryIdle
	st.warned = false
	r.mu.Unlock()

	r.sessions.Apply(userID, mergeProfile(profile))
	return profile, nil
}

// Role returns the resolved role for the route guard: the session view
// when already merged, otherwise a single synchronous fetch. Unknown is
// returned while the profile is pending or missing.
func (r *ProfileResolver) Role(ctx context.Context, userID uuid.UUID) access.Role {
	if s, ok := r.sessions.Get(userID); ok && s.User.Role != access.RoleUnknown {
		return s.User.Role
	}
	profile, err := r.FetchProfile(ctx, userID, false)
	if err != nil || profile == nil {
		return access.RoleUnknown
	}
	return access.ParseRole(profile.Role)
}

func (r *ProfileResolver) state(userID uuid.UUID) *retryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[userID]
	if !ok {
		st = &retryState{}
		r.states[userID] = st
	}
	return st
}

func (r *ProfileResolver) scheduleRetry(userID uuid.UUID, st *retryState) error {
	r.mu.Lock()
	prior := st.count
	st.count++
	if st.count >= maxProfileRetries {
		st.phase = retryExhausted
		st.cancel = nil
		warn := !st.warned
		st.warned = true
		r.mu.Unlock()
		if warn {
			slog.Warn("profile data incomplete, giving up after retries",
				"user_id", userID.String(), "attempts", maxProfileRetries)
		}
		return ErrProfileMissing
	}
	st.phase = retryWaiting
	delay := backoffDelay(prior)
	st.cancel = r.schedule(delay, func() {
		if _, err := r.FetchProfile(context.Background(), userID, false); err != nil &&
			!errors.Is(err, ErrProfilePending) && !errors.Is(err, ErrProfileMissing) {
			slog.Error("profile retry failed", "user_id", userID.String(), "error", err)
		}
	})
	r.mu.Unlock()

	slog.Info("profile not found, retry scheduled",
		"user_id", userID.String(), "attempt", prior+1, "delay", delay.String())
	return ErrProfilePending
}

func backoffDelay(retryCount int) time.Duration {
	d := retryBaseDelay << retryCount
	if d > retryMaxDelay {
		return retryMaxDelay
	}
	return d
}

// mergeProfile folds profile fields into the session's user view. An
// email already present on the view survives a profile that omits one.
func mergeProfile(p *models.Profile) func(session.UserView) session.UserView {
	return func(v session.UserView) session.UserView {
		v.FirstName = p.FirstName
		v.LastName = p.LastName
		v.Role = access.ParseRole(p.Role)
		v.WorkArea = p.WorkArea
		v.CellPhoneNumber = p.CellPhoneNumber
		v.ProfilePictureURL = p.ProfilePictureURL
		if p.Email != "" {
			v.Email = p.Email
		}
		return v
	}
}
