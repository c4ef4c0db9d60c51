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

// Package quote manages repair quotes and their public share links.
package quote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/audit"
	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/id"
	"github.com/shopfloor/shopfloor/internal/vehicle"
)

// VehicleLookup is satisfied by vehicle.Repository.
type VehicleLookup interface {
	Get(ctx context.Context, organizationID, id string) (*vehicle.Vehicle, error)
}

// Service manages quotes within the caller's organization.
type Service struct {
	repo        Repository
	vehicles    VehicleLookup
	auditLogger audit.Logger
}

// NewService creates a quote service
func NewService(repo Repository, vehicles VehicleLookup, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		vehicles:    vehicles,
		auditLogger: auditLogger,
	}
}

func perm(a authz.Action) access.Requirement {
	return access.Require(authz.Perm(a, authz.SubjectQuotes))
}

// List returns the quotes of the caller's organization.
func (s *Service) List(ctx context.Context, scope *access.Scope) access.Result[[]*Quote] {
	return access.WithAuth(ctx, scope, perm(authz.ActionRead),
		func(ctx context.Context, ac *access.AuthContext) ([]*Quote, error) {
			return s.repo.List(ctx, ac.OrganizationID())
		})
}

// Create drafts a quote for a vehicle of the caller's organization. A vehicle
// owned by another organization is reported as vehicle.ErrVehicleNotFound.
func (s *Service) Create(ctx context.Context, scope *access.Scope, in Input) access.Result[*Quote] {
	return access.WithAuth(ctx, scope, perm(authz.ActionCreate),
		func(ctx context.Context, ac *access.AuthContext) (*Quote, error) {
			in.Title = strings.TrimSpace(in.Title)
			in.Description = strings.TrimSpace(in.Description)
			if in.Title == "" || len(in.Title) > 200 {
				return nil, fmt.Errorf("%w: title must be 1-200 characters", ErrInvalidQuote)
			}
			if in.TotalCents < 0 {
				return nil, fmt.Errorf("%w: total must not be negative", ErrInvalidQuote)
			}
			if in.VehicleID == "" {
				return nil, fmt.Errorf("%w: vehicle_id is required", ErrInvalidQuote)
			}

			if _, err := s.vehicles.Get(ctx, ac.OrganizationID(), in.VehicleID); err != nil {
				return nil, err
			}

			now := time.Now()
			q := &Quote{
				ID:             id.NewUUIDv7(),
				OrganizationID: ac.OrganizationID(),
				VehicleID:      in.VehicleID,
				Title:          in.Title,
				Description:    in.Description,
				TotalCents:     in.TotalCents,
				Status:         StatusDraft,
				CreatedBy:      ac.UserID(),
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.repo.Create(ctx, q); err != nil {
				return nil, fmt.Errorf("failed to create quote: %w", err)
			}
			return q, nil
		})
}

// Share issues a public share token. Sharing an already shared quote returns
// the existing token.
func (s *Service) Share(ctx context.Context, scope *access.Scope, quoteID string) access.Result[*Quote] {
	return access.WithAuth(ctx, scope, perm(authz.ActionUpdate),
		func(ctx context.Context, ac *access.AuthContext) (*Quote, error) {
			q, err := s.repo.Get(ctx, ac.OrganizationID(), quoteID)
			if err != nil {
				return nil, err
			}
			if q.ShareToken != "" {
				return q, nil
			}

			now := time.Now()
			token := id.NewToken()
			if err := s.repo.SetShareToken(ctx, ac.OrganizationID(), q.ID, token, now); err != nil {
				return nil, fmt.Errorf("failed to share quote: %w", err)
			}
			q.ShareToken = token
			q.Status = StatusShared
			q.UpdatedAt = now

			s.auditLogger.Log(ctx, audit.Event{
				Type:           audit.TypeQuoteShared,
				OrganizationID: ac.OrganizationID(),
				ActorID:        ac.UserID(),
				Resource:       "quote",
				Metadata: map[string]any{
					audit.AttrQuoteID:   q.ID,
					audit.AttrVehicleID: q.VehicleID,
				},
			})
			return q, nil
		})
}

// GetByShareToken serves public share links. It is not gated and returns
// only the public projection.
func (s *Service) GetByShareToken(ctx context.Context, token string) (*PublicQuote, error) {
	if token == "" {
		return nil, ErrQuoteNotFound
	}
	q, err := s.repo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return q.Public(), nil
}
