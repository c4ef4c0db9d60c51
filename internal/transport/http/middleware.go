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
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/shopfloor/shopfloor/internal/observability/logger"
	"github.com/shopfloor/shopfloor/internal/session"
)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.DebugContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// ScopeMiddleware opens the per-request access scope from the session
// cookie and the active-organization cookie. It never rejects a request;
// handlers decide through the gate.
//
// The organization is never taken from headers or the URL. The pointer
// cookie is only a hint and is re-validated against live memberships.
func (h *Handler) ScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := cookieValue(r, h.sessionConfig.CookieName)
		hint := cookieValue(r, h.activeOrgConfig.CookieName)

		scope := h.gate.NewRequestScope(r.Context(), credential, hint)
		next.ServeHTTP(w, r.WithContext(withScope(r.Context(), scope)))
	})
}

// SessionActivityMiddleware records activity on the caller's session once the
// handler is done. Resolution itself never writes.
func (h *Handler) SessionActivityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		credential := cookieValue(r, h.sessionConfig.CookieName)
		if credential == "" {
			return
		}
		err := h.sessionService.Refresh(r.Context(), credential)
		if err != nil && !errors.Is(err, session.ErrSessionNotFound) &&
			!errors.Is(err, session.ErrSessionExpired) && !errors.Is(err, session.ErrSessionInvalid) {
			slog.WarnContext(r.Context(), "failed to refresh session", logger.Error(err))
		}
	})
}

// CSRFMiddleware protects against Cross-Site Request Forgery for state-changing requests.
// We enforce a custom header 'X-CSRF-Token'.
func (h *Handler) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions || r.Method == http.MethodTrace {
			next.ServeHTTP(w, r)
			return
		}

		// Cross-site forms cannot set custom headers, so presence is enough.
		if r.Header.Get("X-CSRF-Token") == "" {
			slog.WarnContext(r.Context(), "missing CSRF token header",
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)
			respondError(w, http.StatusForbidden, "X-CSRF-Token header is required for state-changing operations")
			return
		}

		next.ServeHTTP(w, r)
	})
}
