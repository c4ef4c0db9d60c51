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
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/audit"
	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/identity"
	"github.com/shopfloor/shopfloor/internal/observability/logger"
	"github.com/shopfloor/shopfloor/internal/session"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"secret123"`
}

// Login handles user login
// @Summary Login
// @Description Authenticate user and create a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrAccountLocked):
			respondError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			slog.ErrorContext(r.Context(), "failed to authenticate", logger.Error(err))
			respondError(w, http.StatusServiceUnavailable, "service unavailable")
		}
		return
	}

	sess, err := h.sessionService.Create(r.Context(), user.ID, getIPAddress(r), r.UserAgent())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.setCookie(w, h.sessionConfig.CookieName, sess.ID, h.sessionConfig.Lifetime)

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// Logout handles user logout
// @Summary Logout
// @Description Destroy the current session
// @Tags Auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := cookieValue(r, h.sessionConfig.CookieName)

	if p, err := h.scope(r).Principal(r.Context()); err == nil && p != nil {
		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeLogout,
			ActorID:   p.UserID,
			Resource:  "session",
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
		})
	}
	if err := h.sessionService.Destroy(r.Context(), sessionID); err != nil {
		slog.WarnContext(r.Context(), "failed to destroy session", logger.Error(err))
	}

	h.clearCookie(w, h.sessionConfig.CookieName)
	h.clearCookie(w, h.activeOrgConfig.CookieName)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// CurrentUser is the caller's identity and resolved organization.
type CurrentUser struct {
	UserID         string             `json:"user_id"`
	Email          string             `json:"email"`
	Name           string             `json:"name,omitempty"`
	IsSuperAdmin   bool               `json:"is_super_admin"`
	OrganizationID string             `json:"organization_id"`
	Role           authz.Role         `json:"role"`
	Permissions    []authz.Permission `json:"permissions"`
}

// GetCurrentUser returns the current user and their standing in the active organization
// @Summary Get Current User
// @Tags Auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} CurrentUser
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/me [get]
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	res := access.WithAuth(r.Context(), h.scope(r), access.Require(),
		func(ctx context.Context, ac *access.AuthContext) (*CurrentUser, error) {
			user, err := h.identityService.GetUser(ctx, ac.UserID())
			if err != nil {
				return nil, err
			}
			return &CurrentUser{
				UserID:         user.ID,
				Email:          user.Email,
				Name:           user.Name,
				IsSuperAdmin:   ac.IsSuperAdmin(),
				OrganizationID: ac.OrganizationID(),
				Role:           ac.Role(),
				Permissions:    ac.Permissions(),
			}, nil
		})
	respondResult(w, r, res, http.StatusOK)
}

// ChangePasswordRequest represents password change data
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword changes the caller's password. It needs a session but no
// organization. Every session of the user is revoked and the caller gets a
// fresh one.
// @Summary Change Password
// @Tags Auth
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body ChangePasswordRequest true "Password Change Data"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/change-password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res := access.WithSession(r.Context(), h.scope(r),
		func(ctx context.Context, uc access.UserContext) (*session.Session, error) {
			if err := h.identityService.ChangePassword(ctx, uc.UserID, req.OldPassword, req.NewPassword); err != nil {
				return nil, err
			}
			if err := h.sessionService.DestroyAllForUser(ctx, uc.UserID); err != nil {
				return nil, err
			}
			return h.sessionService.Create(ctx, uc.UserID, getIPAddress(r), r.UserAgent())
		})
	if !res.OK() {
		f := res.Failure()
		switch {
		case errors.Is(f, identity.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "invalid old password")
		case errors.Is(f, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "new password does not meet security requirements")
		default:
			respondFailure(w, r, f)
		}
		return
	}

	h.setCookie(w, h.sessionConfig.CookieName, res.Value().ID, h.sessionConfig.Lifetime)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "password changed successfully",
	})
}
