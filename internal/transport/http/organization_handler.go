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
	"strconv"
)

// ListMyOrganizations lists the caller's organizations
// @Summary List My Organizations
// @Tags Organizations
// @Produce json
// @Security CookieAuth
// @Success 200 {array} organization.MyOrganization
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /organizations [get]
func (h *Handler) ListMyOrganizations(w http.ResponseWriter, r *http.Request) {
	respondResult(w, r, h.organizationService.ListMyOrganizations(r.Context(), h.scope(r)), http.StatusOK)
}

// SwitchOrganizationRequest names the organization to act within
type SwitchOrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
}

// SwitchOrganization sets the active-organization cookie. The next request
// resolves to the new organization.
// @Summary Switch Organization
// @Tags Organizations
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body SwitchOrganizationRequest true "Target organization"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /organizations/switch [post]
func (h *Handler) SwitchOrganization(w http.ResponseWriter, r *http.Request) {
	var req SwitchOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil || req.OrganizationID == "" {
		respondError(w, http.StatusBadRequest, "organization_id is required")
		return
	}

	res := h.organizationService.SwitchOrganization(r.Context(), h.scope(r), req.OrganizationID)
	if !res.OK() {
		respondFailure(w, r, res.Failure())
		return
	}

	h.setCookie(w, h.activeOrgConfig.CookieName, res.Value(), h.activeOrgConfig.Lifetime)
	respondJSON(w, http.StatusOK, map[string]string{
		"organization_id": req.OrganizationID,
	})
}

// CreateOrganizationRequest represents a new organization and its first owner
type CreateOrganizationRequest struct {
	Name        string `json:"name" example:"Main Street Garage"`
	OwnerUserID string `json:"owner_user_id"`
}

// CreateOrganization creates an organization. Super admins only.
// @Summary Create Organization
// @Tags Platform
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CreateOrganizationRequest true "Organization"
// @Success 201 {object} organization.Organization
// @Failure 403 {object} map[string]string
// @Router /platform/organizations [post]
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res := h.organizationService.CreateOrganization(r.Context(), h.scope(r), req.Name, req.OwnerUserID)
	respondResult(w, r, res, http.StatusCreated)
}

// ListAllOrganizations lists every organization. Super admins only.
// @Summary List All Organizations
// @Tags Platform
// @Produce json
// @Security CookieAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} organization.Organization
// @Failure 403 {object} map[string]string
// @Router /platform/organizations [get]
func (h *Handler) ListAllOrganizations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	res := h.organizationService.ListAll(r.Context(), h.scope(r), limit, offset)
	respondResult(w, r, res, http.StatusOK)
}
