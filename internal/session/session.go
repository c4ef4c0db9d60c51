package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// ErrSessionInvalid means the stored record could not be decoded.
	ErrSessionInvalid = errors.New("session invalid")
)

// Session represents a signed-in user. The ID is the opaque credential
// carried by the session cookie; it never identifies an organization.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsIdle reports whether the session saw no activity for idleTimeout. A zero
// timeout disables the check.
func (s *Session) IsIdle(idleTimeout time.Duration) bool {
	return idleTimeout > 0 && time.Since(s.LastSeenAt) > idleTimeout
}

// Repository stores sessions. Implementations exist for PostgreSQL and Redis.
type Repository interface {
	Create(ctx context.Context, session *Session) error

	// Get returns ErrSessionNotFound for unknown IDs.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Update persists LastSeenAt and ExpiresAt.
	Update(ctx context.Context, session *Session) error

	Delete(ctx context.Context, sessionID string) error
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired purges expired sessions and reports how many went.
	DeleteExpired(ctx context.Context) (int64, error)
}
