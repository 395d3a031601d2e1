// Package session resolves session cookies to authenticated users. Sessions
// live in Redis with TTL-based expiry. Issuing sessions (login) is the job of
// the external auth service; this package only creates them on its behalf,
// resolves them, and revokes them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidSession  = errors.New("invalid session")
)

// Session identifies an authenticated user
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager defines session lifecycle operations
type Manager interface {
	Create(ctx context.Context, userID, email string, maxAge int) (string, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type manager struct {
	store Store
	now   func() time.Time
}

// NewManager creates a session manager over the given store
func NewManager(store Store) Manager {
	return &manager{store: store, now: time.Now}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (m *manager) Create(ctx context.Context, userID, email string, maxAge int) (string, error) {
	now := m.now()
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(maxAge) * time.Second),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Duration(maxAge) * time.Second
	if err := m.store.Set(ctx, sessionKey(sess.ID), string(data), ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return sess.ID, nil
}

func (m *manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := m.store.Get(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, ErrSessionNotFound
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, ErrInvalidSession
	}

	// the TTL should have evicted it already, but don't trust the clock skew
	if m.now().After(sess.ExpiresAt) {
		m.store.Delete(ctx, sessionKey(sessionID))
		return nil, ErrSessionExpired
	}

	return &sess, nil
}

func (m *manager) Delete(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionKey(sessionID))
}
