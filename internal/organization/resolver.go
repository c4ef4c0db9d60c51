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
	"fmt"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/authz"
)

// PointerReader decodes the active-organization hint for a user. It returns
// "" when the hint is not valid for that user.
type PointerReader interface {
	Parse(token, userID string) string
}

// MembershipResolver selects the organization a user acts within and
// computes the permissions of their role there.
type MembershipResolver struct {
	memberships MembershipRepository
	roles       *authz.RoleResolver
	pointers    PointerReader
}

// NewMembershipResolver creates a resolver. When pointers is nil the hint is
// taken as a plain organization ID.
func NewMembershipResolver(memberships MembershipRepository, roles *authz.RoleResolver, pointers PointerReader) *MembershipResolver {
	return &MembershipResolver{memberships: memberships, roles: roles, pointers: pointers}
}

// ResolveMembership implements access.MembershipResolver.
//
// The hinted organization wins when the user is still a member of it.
// Otherwise the user's earliest membership is used. No membership resolves
// to nil.
func (r *MembershipResolver) ResolveMembership(ctx context.Context, userID, activeOrgHint string) (*access.Membership, error) {
	hint := activeOrgHint
	if r.pointers != nil {
		hint = r.pointers.Parse(activeOrgHint, userID)
	}

	list, err := r.memberships.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	if len(list) == 0 {
		return nil, nil
	}

	chosen := list[0]
	if hint != "" {
		for _, m := range list {
			if m.OrganizationID == hint {
				chosen = m
				break
			}
		}
	}

	perms, err := r.roles.Resolve(ctx, chosen.OrganizationID, chosen.Role)
	if err != nil {
		return nil, err
	}
	return &access.Membership{
		OrganizationID: chosen.OrganizationID,
		Role:           chosen.Role,
		Permissions:    perms,
	}, nil
}
