// Copyright 2026 The Shopfloor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/id"
	"github.com/shopfloor/shopfloor/internal/identity"
	"github.com/shopfloor/shopfloor/internal/observability/logger"
)

// touchInterval bounds how often Refresh writes LastSeenAt back.
const touchInterval = time.Minute

// UserLookup loads the user behind a session.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*identity.User, error)
}

// Service manages session lifecycle and resolves credentials to principals.
type Service struct {
	repo        Repository
	users       UserLookup
	lifetime    time.Duration
	idleTimeout time.Duration
}

// NewService creates a session service
func NewService(repo Repository, users UserLookup, lifetime, idleTimeout time.Duration) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		lifetime:    lifetime,
		idleTimeout: idleTimeout,
	}
}

// Create starts a session for userID.
func (s *Service) Create(ctx context.Context, userID, ipAddress, userAgent string) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:         id.NewToken(),
		UserID:     userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		ExpiresAt:  now.Add(s.lifetime),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// Get returns a live session. Expired and idle sessions are reported as
// ErrSessionExpired and left for CleanupExpired to purge.
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired() || sess.IsIdle(s.idleTimeout) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Refresh records activity on a live session. Writes are skipped when the
// session was seen within touchInterval.
func (s *Service) Refresh(ctx context.Context, sessionID string) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	now := time.Now()
	if now.Sub(sess.LastSeenAt) < touchInterval {
		return nil
	}
	sess.LastSeenAt = now
	if err := s.repo.Update(ctx, sess); err != nil {
		return fmt.Errorf("failed to refresh session: %w", err)
	}
	return nil
}

// Destroy ends a session. Destroying an unknown session is not an error.
func (s *Service) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.repo.Delete(ctx, sessionID)
}

// DestroyAllForUser ends every session of userID.
func (s *Service) DestroyAllForUser(ctx context.Context, userID string) error {
	return s.repo.DeleteByUserID(ctx, userID)
}

// CleanupExpired purges expired sessions.
func (s *Service) CleanupExpired(ctx context.Context) error {
	n, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "purged expired sessions", logger.RowsAffected(n))
	}
	return nil
}

// ResolvePrincipal implements access.SessionResolver. A missing, expired or
// idle session, or one whose user no longer exists, resolves to nil. It only
// reads; activity is recorded separately through Refresh.
func (s *Service) ResolvePrincipal(ctx context.Context, credential string) (*access.Principal, error) {
	if credential == "" {
		return nil, nil
	}

	sess, err := s.Get(ctx, credential)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionInvalid) {
			return nil, nil
		}
		return nil, err
	}

	user, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &access.Principal{
		UserID:       user.ID,
		SessionID:    sess.ID,
		IsSuperAdmin: user.IsSuperAdmin,
	}, nil
}
