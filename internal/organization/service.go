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

package organization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/audit"
	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/id"
	"github.com/shopfloor/shopfloor/internal/identity"
)

// UserLookup loads users by ID.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*identity.User, error)
}

// PointerSigner issues active-organization pointers.
type PointerSigner interface {
	Sign(userID, organizationID string) (string, error)
}

// Service provides organization lifecycle and switching.
type Service struct {
	repo        Repository
	memberships MembershipRepository
	users       UserLookup
	pointers    PointerSigner
	auditLogger audit.Logger
}

// NewService creates a new organization service
func NewService(
	repo Repository,
	memberships MembershipRepository,
	users UserLookup,
	pointers PointerSigner,
	auditLogger audit.Logger,
) *Service {
	return &Service{
		repo:        repo,
		memberships: memberships,
		users:       users,
		pointers:    pointers,
		auditLogger: auditLogger,
	}
}

// CreateOrganization creates an organization with ownerUserID as its first
// Owner. Super admins only.
func (s *Service) CreateOrganization(ctx context.Context, scope *access.Scope, name, ownerUserID string) access.Result[*Organization] {
	return access.WithSuperAdmin(ctx, scope, func(ctx context.Context, uc access.UserContext) (*Organization, error) {
		name = strings.TrimSpace(name)
		if name == "" || len(name) > 200 {
			return nil, ErrInvalidOrganizationName
		}
		if _, err := s.users.GetUser(ctx, ownerUserID); err != nil {
			return nil, err
		}

		now := time.Now()
		org := &Organization{
			ID:        id.NewUUIDv7(),
			Name:      name,
			Status:    StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		owner := &Membership{
			ID:             id.NewUUIDv7(),
			OrganizationID: org.ID,
			UserID:         ownerUserID,
			Role:           authz.Builtin(authz.BuiltinOwner),
			CreatedAt:      now,
		}
		if err := s.repo.CreateWithOwner(ctx, org, owner); err != nil {
			return nil, fmt.Errorf("failed to create organization: %w", err)
		}

		s.auditLogger.Log(ctx, audit.Event{
			Type:           audit.TypeOrganizationCreated,
			OrganizationID: org.ID,
			ActorID:        uc.UserID,
			Resource:       "organization",
			Metadata: map[string]any{
				audit.AttrName:         name,
				audit.AttrTargetUserID: ownerUserID,
			},
		})
		return org, nil
	})
}

// ListAll lists every organization on the platform. Super admins only.
func (s *Service) ListAll(ctx context.Context, scope *access.Scope, limit, offset int) access.Result[[]*Organization] {
	return access.WithSuperAdmin(ctx, scope, func(ctx context.Context, uc access.UserContext) ([]*Organization, error) {
		if limit <= 0 || limit > 100 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}
		return s.repo.List(ctx, limit, offset)
	})
}

// ListMyOrganizations lists the caller's memberships, marking the one the
// current request resolved to.
func (s *Service) ListMyOrganizations(ctx context.Context, scope *access.Scope) access.Result[[]MyOrganization] {
	return access.WithAuth(ctx, scope, access.Require(), func(ctx context.Context, ac *access.AuthContext) ([]MyOrganization, error) {
		list, err := s.memberships.ListForUser(ctx, ac.UserID())
		if err != nil {
			return nil, err
		}
		out := make([]MyOrganization, 0, len(list))
		for _, m := range list {
			org, err := s.repo.GetByID(ctx, m.OrganizationID)
			if err != nil {
				if errors.Is(err, ErrOrganizationNotFound) {
					continue
				}
				return nil, err
			}
			out = append(out, MyOrganization{
				Organization: org,
				Role:         m.Role,
				Active:       m.OrganizationID == ac.OrganizationID(),
			})
		}
		return out, nil
	})
}

// SwitchOrganization returns a signed pointer to organizationID. The caller
// must be a member there; the switch takes effect on the next request.
func (s *Service) SwitchOrganization(ctx context.Context, scope *access.Scope, organizationID string) access.Result[string] {
	return access.WithAuth(ctx, scope, access.Require(), func(ctx context.Context, ac *access.AuthContext) (string, error) {
		if _, err := s.memberships.Get(ctx, organizationID, ac.UserID()); err != nil {
			if errors.Is(err, ErrMembershipNotFound) {
				return "", ErrNotAMember
			}
			return "", err
		}

		pointer, err := s.pointers.Sign(ac.UserID(), organizationID)
		if err != nil {
			return "", err
		}

		s.auditLogger.Log(ctx, audit.Event{
			Type:           audit.TypeOrganizationSwitched,
			OrganizationID: organizationID,
			ActorID:        ac.UserID(),
			Resource:       "organization",
		})
		return pointer, nil
	})
}
