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
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/identity"
	"github.com/shopfloor/shopfloor/internal/observability/logger"
	"github.com/shopfloor/shopfloor/internal/organization"
	"github.com/shopfloor/shopfloor/internal/quote"
	"github.com/shopfloor/shopfloor/internal/team"
	"github.com/shopfloor/shopfloor/internal/vehicle"
)

// ErrorNoOrganization is the error code clients use to start onboarding.
const ErrorNoOrganization = "no_organization"

var (
	notFoundErrors = []error{
		vehicle.ErrVehicleNotFound,
		quote.ErrQuoteNotFound,
		organization.ErrOrganizationNotFound,
		organization.ErrMembershipNotFound,
		authz.ErrRoleNotFound,
		identity.ErrUserNotFound,
	}
	badRequestErrors = []error{
		vehicle.ErrInvalidVehicle,
		quote.ErrInvalidQuote,
		organization.ErrInvalidOrganizationName,
		authz.ErrInvalidRole,
		authz.ErrInvalidPermission,
		authz.ErrInvalidRoleName,
		identity.ErrInvalidEmail,
	}
	conflictErrors = []error{
		organization.ErrMembershipExists,
		organization.ErrLastOwner,
		authz.ErrRoleAlreadyExists,
	}
	forbiddenErrors = []error{
		organization.ErrNotAMember,
		team.ErrOwnerRequired,
	}
)

func matchAny(err error, targets []error) (error, bool) {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target, true
		}
	}
	return nil, false
}

// failureStatus maps a gate failure to an HTTP status and client message.
// Operation errors only surface their text when they wrap a known sentinel.
func failureStatus(f *access.Failure) (int, string) {
	switch f.Kind {
	case access.KindUnauthorized:
		return http.StatusUnauthorized, "not authenticated"
	case access.KindNoOrganization:
		return http.StatusConflict, ErrorNoOrganization
	case access.KindForbidden:
		return http.StatusForbidden, "forbidden"
	case access.KindUnavailable:
		return http.StatusServiceUnavailable, "service unavailable"
	}

	if target, ok := matchAny(f.Err, notFoundErrors); ok {
		return http.StatusNotFound, target.Error()
	}
	if _, ok := matchAny(f.Err, badRequestErrors); ok {
		return http.StatusBadRequest, f.Err.Error()
	}
	if target, ok := matchAny(f.Err, conflictErrors); ok {
		return http.StatusConflict, target.Error()
	}
	if target, ok := matchAny(f.Err, forbiddenErrors); ok {
		return http.StatusForbidden, target.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func respondFailure(w http.ResponseWriter, r *http.Request, f *access.Failure) {
	status, message := failureStatus(f)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			logger.Path(r.URL.Path),
			logger.Decision(string(f.Kind)),
			logger.Error(f),
		)
	}
	respondError(w, status, message)
}

// respondResult writes the value of a successful result with status, or the
// mapped failure.
func respondResult[T any](w http.ResponseWriter, r *http.Request, res access.Result[T], status int) {
	if !res.OK() {
		respondFailure(w, r, res.Failure())
		return
	}
	respondJSON(w, status, res.Value())
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
