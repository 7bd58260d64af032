package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fabtrack/fabtrack-backend/internal/config"
	"github.com/fabtrack/fabtrack-backend/internal/dto"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/fabtrack/fabtrack-backend/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService is the identity boundary: password auth, HS256 access
// tokens, rotating opaque refresh tokens, and password resets. It
// implements session.IdentityProvider and publishes auth-state events to
// subscribers.
type AuthService struct {
	db  *gorm.DB
	cfg *config.Config

	subMu   sync.Mutex
	subs    map[int]func(session.AuthEvent)
	nextSub int
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:   db,
		cfg:  cfg,
		subs: make(map[int]func(session.AuthEvent)),
	}
}

// OnAuthStateChange registers fn for auth-state events and returns its
// unsubscribe function.
func (s *AuthService) OnAuthStateChange(fn func(session.AuthEvent)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *AuthService) emit(ev session.AuthEvent) {
	s.subMu.Lock()
	fns := make([]func(session.AuthEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if len(req.Email) == 0 || len(req.Password) < 8 {
		return nil, errors.New("email required and password must be at least 8 characters")
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Identity only. The profile row is created afterwards by the front
	// office, so profile lookups right after registration can miss.
	user := models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Password:     string(hash),
		AuthProvider: "email",
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	resp, err := s.generateTokenPair(ctx, &user)
	if err != nil {
		return nil, err
	}
	s.emit(session.AuthEvent{Type: session.EventSignedIn, UserID: user.ID, Email: user.Email})
	return resp, nil
}

// SignInWithPassword implements session.IdentityProvider.
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*session.Identity, *session.Credentials, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	resp, err := s.generateTokenPair(ctx, &user)
	if err != nil {
		return nil, nil, err
	}

	s.emit(session.AuthEvent{Type: session.EventSignedIn, UserID: user.ID, Email: user.Email})
	return &session.Identity{UserID: user.ID, Email: user.Email},
		&session.Credentials{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken},
		nil
}

// GetSession implements session.IdentityProvider. A missing, malformed,
// or expired token is simply the absence of a session, not an error.
func (s *AuthService) GetSession(_ context.Context, accessToken string) (*session.Identity, error) {
	if accessToken == "" {
		return nil, nil
	}

	token, err := jwt.Parse(accessToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, nil
	}
	email, _ := claims["email"].(string)

	return &session.Identity{UserID: userID, Email: email}, nil
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	resp, err := s.generateTokenPair(ctx, &user)
	if err != nil {
		return nil, err
	}
	s.emit(session.AuthEvent{Type: session.EventTokenRefreshed, UserID: user.ID, Email: user.Email})
	return resp, nil
}

// SignOut implements session.IdentityProvider. Revoking an unknown token
// is a no-op so sign-out stays idempotent; only infrastructure failures
// surface.
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	tokenHash := hashToken(refreshToken)

	var stored models.RefreshToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if err := s.db.Model(&stored).Update("revoked", true).Error; err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", stored.UserID).Error; err == nil {
		s.emit(session.AuthEvent{Type: session.EventSignedOut, UserID: user.ID, Email: user.Email})
	}
	return nil
}

// ResetPasswordForEmail implements session.IdentityProvider. An unknown
// email succeeds silently so the endpoint cannot be used to probe for
// accounts. Token delivery happens out of band.
func (s *AuthService) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	rawToken, tokenHash, err := newOpaqueToken()
	if err != nil {
		return err
	}

	if redirectTo == "" {
		redirectTo = s.cfg.ResetRedirectURL
	}

	record := models.PasswordReset{
		ID:         uuid.New(),
		UserID:     user.ID,
		TokenHash:  tokenHash,
		RedirectTo: redirectTo,
		ExpiresAt:  time.Now().Add(s.cfg.ResetTokenExpiry),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	slog.Info("password reset token issued", "user_id", user.ID.String(), "token", rawToken[:8]+"…")
	return nil
}

// ConfirmPasswordReset consumes a reset token, sets the new password, and
// revokes all of the user's refresh tokens.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, rawToken, newPassword string) (string, error) {
	if len(newPassword) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}

	tokenHash := hashToken(rawToken)
	var reset models.PasswordReset
	if err := s.db.WithContext(ctx).Where("token_hash = ? AND used = false", tokenHash).First(&reset).Error; err != nil {
		return "", ErrInvalidResetToken
	}
	if time.Now().After(reset.ExpiresAt) {
		return "", ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password", string(hash)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.RefreshToken{}).Where("user_id = ?", reset.UserID).Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Model(&reset).Update("used", true).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to apply password reset: %w", err)
	}

	s.emit(session.AuthEvent{Type: session.EventSignedOut, UserID: reset.UserID})
	return reset.RedirectTo, nil
}

func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}

	if password == "" {
		return errors.New("password is required")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{})
		tx.Where("user_id = ?", userID).Delete(&models.PasswordReset{})
		tx.Where("user_id = ?", userID).Delete(&models.TaskAssignment{})
		tx.Where("user_id = ?", userID).Delete(&models.TimeEntry{})
		tx.Where("user_id = ?", userID).Delete(&models.Profile{})
		return tx.Delete(&user).Error
	})
	if err != nil {
		return err
	}

	s.emit(session.AuthEvent{Type: session.EventSignedOut, UserID: userID, Email: user.Email})
	return nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:    user.ID,
			Email: user.Email,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawToken, tokenHash, err := newOpaqueToken()
	if err != nil {
		return "", err
	}

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func newOpaqueToken() (raw, hash string, err error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	raw = base64.URLEncoding.EncodeToString(rawBytes)
	return raw, hashToken(raw), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
