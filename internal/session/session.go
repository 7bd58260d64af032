package session

import (
	"context"

	"github.com/fabtrack/fabtrack-backend/internal/access"
	"github.com/google/uuid"
)

// Session is the in-memory representation of one actor's authentication
// state. Authenticated implies UserID is set; the reverse does not hold
// for the merged User view, whose profile fields may still be loading or
// permanently missing.
type Session struct {
	Authenticated bool      `json:"authenticated"`
	UserID        uuid.UUID `json:"user_id,omitempty"`
	Email         string    `json:"email,omitempty"`
	User          UserView  `json:"user"`
}

// UserView is the merged, user-facing view: identity plus whatever
// profile fields have been resolved so far.
type UserView struct {
	FirstName         string      `json:"first_name,omitempty"`
	LastName          string      `json:"last_name,omitempty"`
	Role              access.Role `json:"role,omitempty"`
	WorkArea          string      `json:"work_area,omitempty"`
	Email             string      `json:"email,omitempty"`
	CellPhoneNumber   string      `json:"cell_phone_number,omitempty"`
	ProfilePictureURL string      `json:"profile_picture_url,omitempty"`
}

// Identity is what the identity provider knows about an authenticated
// actor: bare identity, no profile.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Credentials are the tokens minted for an authenticated session.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// AuthEvent is published by the identity provider whenever an actor's
// authentication state changes.
type AuthEvent struct {
	Type   EventType
	UserID uuid.UUID
	Email  string
}

// IdentityProvider is the identity boundary the manager delegates to.
// GetSession returns (nil, nil) when the token carries no live session.
type IdentityProvider interface {
	GetSession(ctx context.Context, accessToken string) (*Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, *Credentials, error)
	SignOut(ctx context.Context, refreshToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	OnAuthStateChange(fn func(AuthEvent)) (unsubscribe func())
}
