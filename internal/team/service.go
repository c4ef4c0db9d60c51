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

// Package team manages who belongs to an organization and the custom roles
// they can be given. Every operation runs behind the access gate and acts
// only on the caller's resolved organization.
package team

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/audit"
	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/id"
	"github.com/shopfloor/shopfloor/internal/identity"
	"github.com/shopfloor/shopfloor/internal/organization"
)

// ErrOwnerRequired is returned when a non-owner tries to grant or take away
// the Owner role.
var ErrOwnerRequired = errors.New("only an owner can grant or revoke the owner role")

// UserLookup finds users by email.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*identity.User, error)
}

// RoleInput is the editable part of a custom role.
type RoleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// Service provides member and custom role management.
type Service struct {
	memberships organization.MembershipRepository
	roles       authz.RoleRepository
	users       UserLookup
	auditLogger audit.Logger
}

// NewService creates a new team service
func NewService(
	memberships organization.MembershipRepository,
	roles authz.RoleRepository,
	users UserLookup,
	auditLogger audit.Logger,
) *Service {
	return &Service{
		memberships: memberships,
		roles:       roles,
		users:       users,
		auditLogger: auditLogger,
	}
}

var (
	permTeamRead    = authz.Perm(authz.ActionRead, authz.SubjectTeam)
	permTeamCreate  = authz.Perm(authz.ActionCreate, authz.SubjectTeam)
	permTeamUpdate  = authz.Perm(authz.ActionUpdate, authz.SubjectTeam)
	permTeamDelete  = authz.Perm(authz.ActionDelete, authz.SubjectTeam)
	permRolesRead   = authz.Perm(authz.ActionRead, authz.SubjectRoles)
	permRolesCreate = authz.Perm(authz.ActionCreate, authz.SubjectRoles)
	permRolesUpdate = authz.Perm(authz.ActionUpdate, authz.SubjectRoles)
	permRolesDelete = authz.Perm(authz.ActionDelete, authz.SubjectRoles)
)

// ListMembers lists the memberships of the caller's organization.
func (s *Service) ListMembers(ctx context.Context, scope *access.Scope) access.Result[[]*organization.Membership] {
	return access.WithAuth(ctx, scope, access.Require(permTeamRead),
		func(ctx context.Context, ac *access.AuthContext) ([]*organization.Membership, error) {
			return s.memberships.ListForOrganization(ctx, ac.OrganizationID())
		})
}

// AddMember adds the user registered under email with the given role.
func (s *Service) AddMember(ctx context.Context, scope *access.Scope, email string, role authz.Role) access.Result[*organization.Membership] {
	return access.WithAuth(ctx, scope, access.Require(permTeamCreate),
		func(ctx context.Context, ac *access.AuthContext) (*organization.Membership, error) {
			if err := s.checkAssignable(ctx, ac, role); err != nil {
				return nil, err
			}
			user, err := s.users.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}

			m := &organization.Membership{
				ID:             id.NewUUIDv7(),
				OrganizationID: ac.OrganizationID(),
				UserID:         user.ID,
				Role:           role,
				CreatedAt:      time.Now(),
			}
			if err := s.memberships.Create(ctx, m); err != nil {
				return nil, err
			}

			s.auditLogger.Log(ctx, audit.Event{
				Type:           audit.TypeMemberAdded,
				OrganizationID: ac.OrganizationID(),
				ActorID:        ac.UserID(),
				Resource:       "membership",
				Metadata: map[string]any{
					audit.AttrTargetUserID: user.ID,
					audit.AttrRole:         role.String(),
				},
			})
			return m, nil
		})
}

// ChangeMemberRole replaces a member's role. The last Owner cannot be
// demoted.
func (s *Service) ChangeMemberRole(ctx context.Context, scope *access.Scope, userID string, role authz.Role) access.Result[*organization.Membership] {
	return access.WithAuth(ctx, scope, access.Require(permTeamUpdate),
		func(ctx context.Context, ac *access.AuthContext) (*organization.Membership, error) {
			if err := s.checkAssignable(ctx, ac, role); err != nil {
				return nil, err
			}
			current, err := s.memberships.Get(ctx, ac.OrganizationID(), userID)
			if err != nil {
				return nil, err
			}
			if current.Role.Is(authz.BuiltinOwner) && !ac.Role().Is(authz.BuiltinOwner) {
				return nil, ErrOwnerRequired
			}
			if err := s.memberships.UpdateRole(ctx, ac.OrganizationID(), userID, role); err != nil {
				return nil, err
			}

			s.auditLogger.Log(ctx, audit.Event{
				Type:           audit.TypeMemberRoleChanged,
				OrganizationID: ac.OrganizationID(),
				ActorID:        ac.UserID(),
				Resource:       "membership",
				Metadata: map[string]any{
					audit.AttrTargetUserID: userID,
					audit.AttrPreviousRole: current.Role.String(),
					audit.AttrRole:         role.String(),
				},
			})
			current.Role = role
			return current, nil
		})
}

// RemoveMember removes a member. The last Owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, scope *access.Scope, userID string) access.Result[struct{}] {
	return access.WithAuth(ctx, scope, access.Require(permTeamDelete),
		func(ctx context.Context, ac *access.AuthContext) (struct{}, error) {
			current, err := s.memberships.Get(ctx, ac.OrganizationID(), userID)
			if err != nil {
				return struct{}{}, err
			}
			if current.Role.Is(authz.BuiltinOwner) && !ac.Role().Is(authz.BuiltinOwner) {
				return struct{}{}, ErrOwnerRequired
			}
			if err := s.memberships.Delete(ctx, ac.OrganizationID(), userID); err != nil {
				return struct{}{}, err
			}

			s.auditLogger.Log(ctx, audit.Event{
				Type:           audit.TypeMemberRemoved,
				OrganizationID: ac.OrganizationID(),
				ActorID:        ac.UserID(),
				Resource:       "membership",
				Metadata:       map[string]any{audit.AttrTargetUserID: userID},
			})
			return struct{}{}, nil
		})
}

// checkAssignable validates role for use in the caller's organization.
func (s *Service) checkAssignable(ctx context.Context, ac *access.AuthContext, role authz.Role) error {
	if role.IsZero() {
		return authz.ErrInvalidRole
	}
	if role.Is(authz.BuiltinOwner) && !ac.Role().Is(authz.BuiltinOwner) {
		return ErrOwnerRequired
	}
	if roleID, ok := role.CustomRoleID(); ok {
		if _, err := s.roles.GetByID(ctx, ac.OrganizationID(), roleID); err != nil {
			return err
		}
	}
	return nil
}

// ListRoles lists the custom roles of the caller's organization.
func (s *Service) ListRoles(ctx context.Context, scope *access.Scope) access.Result[[]*authz.CustomRole] {
	return access.WithAuth(ctx, scope, access.Require(permRolesRead),
		func(ctx context.Context, ac *access.AuthContext) ([]*authz.CustomRole, error) {
			return s.roles.List(ctx, ac.OrganizationID())
		})
}

// CreateRole creates a custom role.
func (s *Service) CreateRole(ctx context.Context, scope *access.Scope, in RoleInput) access.Result[*authz.CustomRole] {
	return access.WithAuth(ctx, scope, access.Require(permRolesCreate),
		func(ctx context.Context, ac *access.AuthContext) (*authz.CustomRole, error) {
			name, perms, err := validateRoleInput(in)
			if err != nil {
				return nil, err
			}
			now := time.Now()
			role := &authz.CustomRole{
				ID:             id.NewUUIDv7(),
				OrganizationID: ac.OrganizationID(),
				Name:           name,
				Description:    strings.TrimSpace(in.Description),
				Permissions:    perms,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.roles.Create(ctx, role); err != nil {
				return nil, err
			}
			s.auditRole(ctx, audit.TypeRoleCreated, ac, role)
			return role, nil
		})
}

// UpdateRole replaces a custom role's name, description and permissions.
// Members holding the role see the change on their next request.
func (s *Service) UpdateRole(ctx context.Context, scope *access.Scope, roleID string, in RoleInput) access.Result[*authz.CustomRole] {
	return access.WithAuth(ctx, scope, access.Require(permRolesUpdate),
		func(ctx context.Context, ac *access.AuthContext) (*authz.CustomRole, error) {
			name, perms, err := validateRoleInput(in)
			if err != nil {
				return nil, err
			}
			role, err := s.roles.GetByID(ctx, ac.OrganizationID(), roleID)
			if err != nil {
				return nil, err
			}
			role.Name = name
			role.Description = strings.TrimSpace(in.Description)
			role.Permissions = perms
			role.UpdatedAt = time.Now()
			if err := s.roles.Update(ctx, role); err != nil {
				return nil, err
			}
			s.auditRole(ctx, audit.TypeRoleUpdated, ac, role)
			return role, nil
		})
}

// DeleteRole deletes a custom role. Members that held it keep their
// membership with no permissions until given another role.
func (s *Service) DeleteRole(ctx context.Context, scope *access.Scope, roleID string) access.Result[struct{}] {
	return access.WithAuth(ctx, scope, access.Require(permRolesDelete),
		func(ctx context.Context, ac *access.AuthContext) (struct{}, error) {
			role, err := s.roles.GetByID(ctx, ac.OrganizationID(), roleID)
			if err != nil {
				return struct{}{}, err
			}
			if err := s.roles.Delete(ctx, ac.OrganizationID(), roleID); err != nil {
				return struct{}{}, err
			}
			s.auditRole(ctx, audit.TypeRoleDeleted, ac, role)
			return struct{}{}, nil
		})
}

func (s *Service) auditRole(ctx context.Context, eventType string, ac *access.AuthContext, role *authz.CustomRole) {
	perms := make([]string, len(role.Permissions))
	for i, p := range role.Permissions {
		perms[i] = p.String()
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:           eventType,
		OrganizationID: ac.OrganizationID(),
		ActorID:        ac.UserID(),
		Resource:       "role:" + role.ID,
		Metadata: map[string]any{
			audit.AttrName:        role.Name,
			audit.AttrPermissions: perms,
		},
	})
}

func validateRoleInput(in RoleInput) (string, []authz.Permission, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 100 {
		return "", nil, authz.ErrInvalidRoleName
	}
	parsed := make([]authz.Permission, 0, len(in.Permissions))
	for _, raw := range in.Permissions {
		p, err := authz.ParsePermission(raw)
		if err != nil {
			return "", nil, err
		}
		parsed = append(parsed, p)
	}
	return name, authz.NewPermissionSet(parsed...).Slice(), nil
}
