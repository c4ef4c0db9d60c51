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

package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	keyPrincipal  = "principal"
	keyResolution = "resolution"
)

// resolution is the memoized outcome of session and membership lookup.
// principal == nil means no session; auth == nil means no organization.
type resolution struct {
	principal *Principal
	auth      *AuthContext
}

// Scope memoizes session and membership resolution for a single inbound
// request. Create one per request with Gate.NewScope and pass it explicitly
// to every gated call made while serving that request; never keep it after
// the request completes.
//
// Concurrent callers share one in-flight lookup. Completed lookups,
// including ones that found nothing, are reused for the rest of the request.
// Lookups that fail or are cancelled are not memoized.
type Scope struct {
	gate       *Gate
	credential string
	hint       string

	// base bounds shared lookups. Nil means unbounded.
	base context.Context

	group singleflight.Group

	mu        sync.Mutex
	principal *Principal
	havePrinc bool
	res       *resolution
}

// NewScope starts a request scope for the given session credential and
// active-organization hint. Either may be empty.
func (g *Gate) NewScope(credential, activeOrgHint string) *Scope {
	return &Scope{gate: g, credential: credential, hint: activeOrgHint}
}

// NewRequestScope is NewScope bound to the request's context. Shared lookups
// stop when ctx ends, but not when a single caller gives up.
func (g *Gate) NewRequestScope(ctx context.Context, credential, activeOrgHint string) *Scope {
	s := g.NewScope(credential, activeOrgHint)
	s.base = ctx
	return s
}

// Principal returns the session's principal, or nil when there is no session.
func (s *Scope) Principal(ctx context.Context) (*Principal, error) {
	if p, ok := s.cachedPrincipal(); ok {
		return p, nil
	}

	v, err := s.do(ctx, keyPrincipal, func(ctx context.Context) (any, error) {
		if p, ok := s.cachedPrincipal(); ok {
			return p, nil
		}
		p, err := s.gate.sessions.ResolvePrincipal(ctx, s.credential)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve session: %w", err)
		}
		s.mu.Lock()
		s.principal, s.havePrinc = p, true
		s.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Principal), nil
}

// AuthContext returns the request's authorization snapshot, or nil when there
// is no session or no membership.
func (s *Scope) AuthContext(ctx context.Context) (*AuthContext, error) {
	res, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return res.auth, nil
}

func (s *Scope) resolve(ctx context.Context) (*resolution, error) {
	if res := s.cachedResolution(); res != nil {
		return res, nil
	}

	v, err := s.do(ctx, keyResolution, func(ctx context.Context) (any, error) {
		if res := s.cachedResolution(); res != nil {
			return res, nil
		}

		if h := s.gate.resolveTime; h != nil {
			start := time.Now()
			defer func() {
				h.Record(ctx, float64(time.Since(start).Microseconds())/1000)
			}()
		}

		p, err := s.Principal(ctx)
		if err != nil {
			return nil, err
		}
		res := &resolution{principal: p}
		if p != nil {
			m, err := s.gate.memberships.ResolveMembership(ctx, p.UserID, s.hint)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve membership: %w", err)
			}
			if m != nil {
				res.auth = NewAuthContext(*p, *m)
			}
		}

		s.mu.Lock()
		s.res = res
		s.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*resolution), nil
}

// do runs fn at most once at a time per key. The shared lookup does not
// inherit the caller's cancellation, so one caller leaving does not fail the
// others; a caller whose ctx ends while waiting returns immediately.
func (s *Scope) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := s.group.DoChan(key, func() (any, error) {
		lctx, cancel := s.lookupContext(ctx)
		defer cancel()
		return fn(lctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

// lookupContext keeps ctx's values and ends with the scope's base context.
func (s *Scope) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if s.base == nil {
		return lctx, cancel
	}
	stop := context.AfterFunc(s.base, cancel)
	return lctx, func() {
		stop()
		cancel()
	}
}

func (s *Scope) cachedPrincipal() (*Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal, s.havePrinc
}

func (s *Scope) cachedResolution() *resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.res
}
