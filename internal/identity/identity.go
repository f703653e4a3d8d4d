// Package identity resolves bearer credentials to an authenticated user and
// issues the sessions those credentials name. Sessions can live in memory
// for tests and single-node runs, or in the database behind the same
// interface.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/justestif/go-stream-player/internal/db"
)

// ErrUnauthenticated is returned when a credential does not name a live
// session.
var ErrUnauthenticated = errors.New("unauthenticated")

// sessionTTL bounds how long an issued session stays valid.
const sessionTTL = 24 * time.Hour

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   db.Role
}

// Resolver turns a bearer credential into an Identity.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*Identity, error)
}

// Issuer mints a new session credential for a user.
type Issuer interface {
	Issue(ctx context.Context, userID string, token *oauth2.Token) (string, error)
}

// newSessionID returns a 64-hex-char random session id.
func newSessionID() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// memorySession is one in-memory session record.
type memorySession struct {
	userID    string
	role      db.Role
	token     *oauth2.Token
	expiresAt time.Time
}

// SessionStore is an in-memory Resolver and Issuer. Roles are captured at
// issue time, so a role change takes effect on the next login.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
	roles    RoleSource
	now      func() time.Time
}

// RoleSource looks up a user's current role.
type RoleSource interface {
	Get(ctx context.Context, id string) (*db.User, error)
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore(roles RoleSource) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]memorySession),
		roles:    roles,
		now:      time.Now,
	}
}

// Issue implements Issuer.
func (s *SessionStore) Issue(ctx context.Context, userID string, token *oauth2.Token) (string, error) {
	user, err := s.roles.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading user %s: %w", userID, err)
	}

	id, err := newSessionID()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sessions[id] = memorySession{
		userID:    userID,
		role:      user.Role,
		token:     token,
		expiresAt: s.now().Add(sessionTTL),
	}
	s.mu.Unlock()
	return id, nil
}

// Resolve implements Resolver.
func (s *SessionStore) Resolve(_ context.Context, credential string) (*Identity, error) {
	s.mu.RLock()
	session, ok := s.sessions[credential]
	s.mu.RUnlock()

	if !ok || s.now().After(session.expiresAt) {
		return nil, ErrUnauthenticated
	}
	return &Identity{UserID: session.userID, Role: session.role}, nil
}

// Revoke drops a session; revoking an unknown credential is a no-op.
func (s *SessionStore) Revoke(credential string) {
	s.mu.Lock()
	delete(s.sessions, credential)
	s.mu.Unlock()
}

// DBSessionStore is a Resolver and Issuer backed by the sessions table, so
// credentials survive restarts and are shared across instances.
type DBSessionStore struct {
	db *db.DB
}

// NewDBSessionStore creates a database-backed session store.
func NewDBSessionStore(database *db.DB) *DBSessionStore {
	return &DBSessionStore{db: database}
}

// Issue implements Issuer.
func (s *DBSessionStore) Issue(ctx context.Context, userID string, token *oauth2.Token) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	session := &db.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}
	if token != nil {
		session.AccessToken = token.AccessToken
		session.RefreshToken = token.RefreshToken
		session.TokenExpiry = token.Expiry
	}

	if err := s.db.Sessions().Create(ctx, session); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

// Resolve implements Resolver. The role is read from the user row on every
// call, so tier changes apply to live sessions.
func (s *DBSessionStore) Resolve(ctx context.Context, credential string) (*Identity, error) {
	session, err := s.db.Sessions().Get(ctx, credential)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	user, err := s.db.Users().Get(ctx, session.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("loading session user: %w", err)
	}

	return &Identity{UserID: user.ID, Role: user.Role}, nil
}

// Revoke deletes the session row.
func (s *DBSessionStore) Revoke(ctx context.Context, credential string) error {
	return s.db.Sessions().Delete(ctx, credential)
}

var (
	_ Resolver = (*SessionStore)(nil)
	_ Issuer   = (*SessionStore)(nil)
	_ Resolver = (*DBSessionStore)(nil)
	_ Issuer   = (*DBSessionStore)(nil)
)
