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

	"github.com/go-chi/chi/v5"

	"github.com/shopfloor/shopfloor/internal/observability/logger"
	"github.com/shopfloor/shopfloor/internal/quote"
	"github.com/shopfloor/shopfloor/internal/vehicle"
)

// ListVehicles lists vehicles of the active organization
// @Summary List Vehicles
// @Tags Vehicles
// @Produce json
// @Security CookieAuth
// @Success 200 {array} vehicle.Vehicle
// @Router /vehicles [get]
func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	respondResult(w, r, h.vehicleService.List(r.Context(), h.scope(r)), http.StatusOK)
}

// CreateVehicle registers a vehicle
// @Summary Create Vehicle
// @Tags Vehicles
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body vehicle.Input true "Vehicle"
// @Success 201 {object} vehicle.Vehicle
// @Router /vehicles [post]
func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var in vehicle.Input
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	respondResult(w, r, h.vehicleService.Create(r.Context(), h.scope(r), in), http.StatusCreated)
}

// GetVehicle returns one vehicle
// @Summary Get Vehicle
// @Tags Vehicles
// @Produce json
// @Security CookieAuth
// @Param vehicleID path string true "Vehicle ID"
// @Success 200 {object} vehicle.Vehicle
// @Failure 404 {object} map[string]string
// @Router /vehicles/{vehicleID} [get]
func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	res := h.vehicleService.Get(r.Context(), h.scope(r), chi.URLParam(r, "vehicleID"))
	respondResult(w, r, res, http.StatusOK)
}

// UpdateVehicle replaces a vehicle's details
// @Summary Update Vehicle
// @Tags Vehicles
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param vehicleID path string true "Vehicle ID"
// @Param request body vehicle.Input true "Vehicle"
// @Success 200 {object} vehicle.Vehicle
// @Router /vehicles/{vehicleID} [put]
func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var in vehicle.Input
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res := h.vehicleService.Update(r.Context(), h.scope(r), chi.URLParam(r, "vehicleID"), in)
	respondResult(w, r, res, http.StatusOK)
}

// DeleteVehicle removes a vehicle
// @Summary Delete Vehicle
// @Tags Vehicles
// @Security CookieAuth
// @Param vehicleID path string true "Vehicle ID"
// @Success 204
// @Router /vehicles/{vehicleID} [delete]
func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	res := h.vehicleService.Delete(r.Context(), h.scope(r), chi.URLParam(r, "vehicleID"))
	if !res.OK() {
		respondFailure(w, r, res.Failure())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListQuotes lists quotes of the active organization
// @Summary List Quotes
// @Tags Quotes
// @Produce json
// @Security CookieAuth
// @Success 200 {array} quote.Quote
// @Router /quotes [get]
func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	respondResult(w, r, h.quoteService.List(r.Context(), h.scope(r)), http.StatusOK)
}

// CreateQuote drafts a quote for a vehicle
// @Summary Create Quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body quote.Input true "Quote"
// @Success 201 {object} quote.Quote
// @Router /quotes [post]
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var in quote.Input
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	respondResult(w, r, h.quoteService.Create(r.Context(), h.scope(r), in), http.StatusCreated)
}

// ShareQuote issues a public share token for a quote
// @Summary Share Quote
// @Tags Quotes
// @Produce json
// @Security CookieAuth
// @Param quoteID path string true "Quote ID"
// @Success 200 {object} quote.Quote
// @Router /quotes/{quoteID}/share [post]
func (h *Handler) ShareQuote(w http.ResponseWriter, r *http.Request) {
	res := h.quoteService.Share(r.Context(), h.scope(r), chi.URLParam(r, "quoteID"))
	respondResult(w, r, res, http.StatusOK)
}

// GetSharedQuote returns the public view of a shared quote. No session is
// required; the token is the credential.
// @Summary Get Shared Quote
// @Tags Public
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} quote.PublicQuote
// @Failure 404 {object} map[string]string
// @Router /public/quotes/{token} [get]
func (h *Handler) GetSharedQuote(w http.ResponseWriter, r *http.Request) {
	pq, err := h.quoteService.GetByShareToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, quote.ErrQuoteNotFound) {
			respondError(w, http.StatusNotFound, "quote not found")
			return
		}
		slog.ErrorContext(r.Context(), "shared quote lookup failed", logger.Error(err))
		respondError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	respondJSON(w, http.StatusOK, pq)
}
