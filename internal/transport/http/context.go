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

package http

import (
	"context"
	"net/http"

	"github.com/shopfloor/shopfloor/internal/access"
)

type contextKey string

const scopeKey contextKey = "access_scope"

func withScope(ctx context.Context, scope *access.Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// ScopeFrom returns the request scope installed by ScopeMiddleware.
func ScopeFrom(ctx context.Context) (*access.Scope, bool) {
	scope, ok := ctx.Value(scopeKey).(*access.Scope)
	return scope, ok && scope != nil
}

// scope returns the request's scope. Requests that bypassed ScopeMiddleware
// get an anonymous one, which every gate rejects.
func (h *Handler) scope(r *http.Request) *access.Scope {
	if scope, ok := ScopeFrom(r.Context()); ok {
		return scope
	}
	return h.gate.NewScope("", "")
}
