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

package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopfloor/shopfloor/internal/observability/logger"
)

// EffectivePermissions maps a role and the rows stored for it to the set it
// grants. stored is ignored for built-in roles.
func EffectivePermissions(role Role, stored []Permission) PermissionSet {
	if _, ok := role.CustomRoleID(); ok {
		return NewPermissionSet(stored...)
	}
	switch {
	case role.Is(BuiltinOwner), role.Is(BuiltinAdmin):
		return NewPermissionSet(Catalog()...)
	default:
		return PermissionSet{}
	}
}

// RoleResolver turns a membership's Role into its effective permissions.
type RoleResolver struct {
	roles CustomRoleLookup
}

// NewRoleResolver creates a resolver backed by roles.
func NewRoleResolver(roles CustomRoleLookup) *RoleResolver {
	return &RoleResolver{roles: roles}
}

// Resolve returns the permissions granted by role within an organization.
// Built-in roles need no I/O. A custom role that no longer exists grants
// nothing; any other lookup failure is returned.
func (r *RoleResolver) Resolve(ctx context.Context, organizationID string, role Role) (PermissionSet, error) {
	roleID, ok := role.CustomRoleID()
	if !ok {
		return EffectivePermissions(role, nil), nil
	}

	stored, err := r.roles.RolePermissions(ctx, organizationID, roleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			slog.DebugContext(ctx, "custom role missing, granting no permissions",
				logger.OrganizationID(organizationID),
				logger.RoleID(roleID),
			)
			return PermissionSet{}, nil
		}
		return PermissionSet{}, fmt.Errorf("failed to load role permissions: %w", err)
	}

	return EffectivePermissions(role, stored), nil
}
