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
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/team"
)

// AddMemberRequest adds an existing user to the active organization
type AddMemberRequest struct {
	Email string     `json:"email"`
	Role  authz.Role `json:"role"`
}

// ChangeMemberRoleRequest carries the new role of a member
type ChangeMemberRoleRequest struct {
	Role authz.Role `json:"role"`
}

// ListMembers lists members of the active organization
// @Summary List Members
// @Tags Team
// @Produce json
// @Security CookieAuth
// @Success 200 {array} organization.Membership
// @Router /members [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	respondResult(w, r, h.teamService.ListMembers(r.Context(), h.scope(r)), http.StatusOK)
}

// AddMember adds a user by email
// @Summary Add Member
// @Tags Team
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body AddMemberRequest true "Member"
// @Success 201 {object} organization.Membership
// @Router /members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res := h.teamService.AddMember(r.Context(), h.scope(r), req.Email, req.Role)
	respondResult(w, r, res, http.StatusCreated)
}

// ChangeMemberRole changes the role of a member
// @Summary Change Member Role
// @Tags Team
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param userID path string true "User ID"
// @Param request body ChangeMemberRoleRequest true "Role"
// @Success 200 {object} organization.Membership
// @Router /members/{userID} [put]
func (h *Handler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	var req ChangeMemberRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res := h.teamService.ChangeMemberRole(r.Context(), h.scope(r), chi.URLParam(r, "userID"), req.Role)
	respondResult(w, r, res, http.StatusOK)
}

// RemoveMember removes a member from the active organization
// @Summary Remove Member
// @Tags Team
// @Security CookieAuth
// @Param userID path string true "User ID"
// @Success 204
// @Router /members/{userID} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	res := h.teamService.RemoveMember(r.Context(), h.scope(r), chi.URLParam(r, "userID"))
	if !res.OK() {
		respondFailure(w, r, res.Failure())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRoles lists custom roles of the active organization
// @Summary List Roles
// @Tags Roles
// @Produce json
// @Security CookieAuth
// @Success 200 {array} authz.CustomRole
// @Router /roles [get]
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	respondResult(w, r, h.teamService.ListRoles(r.Context(), h.scope(r)), http.StatusOK)
}

// CreateRole creates a custom role
// @Summary Create Role
// @Tags Roles
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body team.RoleInput true "Role"
// @Success 201 {object} authz.CustomRole
// @Router /roles [post]
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var in team.RoleInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	respondResult(w, r, h.teamService.CreateRole(r.Context(), h.scope(r), in), http.StatusCreated)
}

// UpdateRole replaces a custom role
// @Summary Update Role
// @Tags Roles
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param roleID path string true "Role ID"
// @Param request body team.RoleInput true "Role"
// @Success 200 {object} authz.CustomRole
// @Router /roles/{roleID} [put]
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var in team.RoleInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res := h.teamService.UpdateRole(r.Context(), h.scope(r), chi.URLParam(r, "roleID"), in)
	respondResult(w, r, res, http.StatusOK)
}

// DeleteRole deletes a custom role. Members holding it keep the reference
// and are granted nothing.
// @Summary Delete Role
// @Tags Roles
// @Security CookieAuth
// @Param roleID path string true "Role ID"
// @Success 204
// @Router /roles/{roleID} [delete]
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	res := h.teamService.DeleteRole(r.Context(), h.scope(r), chi.URLParam(r, "roleID"))
	if !res.OK() {
		respondFailure(w, r, res.Failure())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
