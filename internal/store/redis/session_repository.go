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

// Package redis stores sessions in Redis. Keys expire with the session, so
// expired sessions disappear without a sweep.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/shopfloor/shopfloor/internal/session"
)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user_sessions:"
)

// NewClient parses url and verifies the connection
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// SessionRepository implements session.Repository
type SessionRepository struct {
	client *goredis.Client
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(client *goredis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func sessionKey(id string) string     { return sessionKeyPrefix + id }
func userSessionsKey(id string) string { return userSessionKeyPrefix + id }

func ttl(sess *session.Session) time.Duration {
	return time.Until(sess.ExpiresAt)
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	expiry := ttl(sess)
	if expiry <= 0 {
		return session.ErrSessionExpired
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.ID), data, expiry)
		pipe.SAdd(ctx, userSessionsKey(sess.UserID), sess.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, session.ErrSessionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, session.ErrSessionInvalid
	}
	return &sess, nil
}

// Update rewrites a live session. A session that already expired is not
// brought back.
func (r *SessionRepository) Update(ctx context.Context, sess *session.Session) error {
	expiry := ttl(sess)
	if expiry <= 0 {
		return session.ErrSessionNotFound
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ok, err := r.client.SetXX(ctx, sessionKey(sess.ID), data, expiry).Result()
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if !ok {
		return session.ErrSessionNotFound
	}
	return nil
}

// Delete deletes a session
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	sess, err := r.Get(ctx, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil
	}
	if err != nil && !errors.Is(err, session.ErrSessionInvalid) {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sessionID))
		if sess != nil {
			pipe.SRem(ctx, userSessionsKey(sess.UserID), sessionID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID deletes all sessions for a user
func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	ids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpired prunes per-user indexes of sessions Redis already expired.
// It reports how many index entries were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	var pruned int64
	iter := r.client.Scan(ctx, 0, userSessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		indexKey := iter.Val()
		ids, err := r.client.SMembers(ctx, indexKey).Result()
		if err != nil {
			return pruned, fmt.Errorf("failed to list user sessions: %w", err)
		}
		for _, id := range ids {
			n, err := r.client.Exists(ctx, sessionKey(id)).Result()
			if err != nil {
				return pruned, fmt.Errorf("failed to check session: %w", err)
			}
			if n == 0 {
				if err := r.client.SRem(ctx, indexKey, id).Err(); err != nil {
					return pruned, fmt.Errorf("failed to prune session index: %w", err)
				}
				pruned++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("failed to scan session indexes: %w", err)
	}
	return pruned, nil
}
