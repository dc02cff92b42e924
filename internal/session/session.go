// Package session keeps the single authoritative login session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/store"
	"github.com/foxzi/mailpanel/internal/strapi"
	"github.com/foxzi/mailpanel/internal/validation"
)

var (
	// ErrNoSession is returned when nobody is logged in or the token expired
	ErrNoSession = errors.New("no active session")

	// ErrInvalidCredentials is returned when the content API rejects a login
	ErrInvalidCredentials = errors.New("invalid identifier or password")
)

// Session is the persisted login state
type Session struct {
	Token     string      `json:"jwt"`
	User      models.User `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
}

// Expired reports whether the token expiry has passed at t
func (s *Session) Expired(t time.Time) bool {
	return s.ExpiresAt != nil && !t.Before(*s.ExpiresAt)
}

// Repository persists the session
type Repository interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// NewStoreRepository returns a Repository on the local store
func NewStoreRepository(db *store.DB) Repository {
	return store.NewValue[Session](db, store.KeySession)
}

// Authenticator exchanges credentials for a token
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (*strapi.AuthResponse, error)
}

// Manager logs users in and out
type Manager struct {
	auth       Authenticator
	repo       Repository
	remembered *store.Value[string]
	logger     *slog.Logger
	now        func() time.Time
}

// NewManager creates a session manager
func NewManager(auth Authenticator, repo Repository, db *store.DB, logger *slog.Logger) *Manager {
	return &Manager{
		auth:       auth,
		repo:       repo,
		remembered: store.NewValue[string](db, store.KeyRememberedIdentifier),
		logger:     logger.With("component", "session"),
		now:        time.Now,
	}
}

// Login authenticates against the content API and persists the session.
// When remember is set the identifier is kept for the next login prompt,
// otherwise any remembered identifier is forgotten.
func (m *Manager) Login(ctx context.Context, identifier, password string, remember bool) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, validation.Errorf("identifier and password are required")
	}

	resp, err := m.auth.Login(ctx, identifier, password)
	if err != nil {
		var apiErr *strapi.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized) {
			m.logger.Info("login rejected", "identifier", identifier)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}

	s := Session{
		Token:     resp.BearerToken(),
		User:      strapi.ParseUser(strapi.ExtractFlat(resp.User), true),
		CreatedAt: m.now(),
		ExpiresAt: tokenExpiry(resp.BearerToken()),
	}
	if err := m.repo.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if remember {
		err = m.remembered.Save(ctx, identifier)
	} else {
		err = m.remembered.Clear(ctx)
	}
	if err != nil {
		m.logger.Warn("failed to update remembered identifier", "error", err)
	}

	m.logger.Info("logged in", "user_id", s.User.ID, "username", s.User.Username)
	return &s, nil
}

// Logout removes the session
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	m.logger.Info("logged out")
	return nil
}

// Current returns the active session. An expired session is cleared and
// reported as ErrNoSession.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	s, err := m.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil || s.Token == "" {
		return nil, ErrNoSession
	}
	if s.Expired(m.now()) {
		m.logger.Info("session expired", "user_id", s.User.ID)
		if err := m.repo.Clear(ctx); err != nil {
			m.logger.Warn("failed to clear expired session", "error", err)
		}
		return nil, ErrNoSession
	}
	return s, nil
}

// RememberedIdentifier returns the identifier saved by the last
// remembered login, or ""
func (m *Manager) RememberedIdentifier(ctx context.Context) (string, error) {
	v, err := m.remembered.Load(ctx)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// content API stays the authority on validity. Tokens that are not JWTs
// or carry no exp never expire locally.
func tokenExpiry(token string) *time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	t := claims.ExpiresAt.Time
	return &t
}
