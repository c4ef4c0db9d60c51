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

package access

import (
	"context"

	"github.com/shopfloor/shopfloor/internal/authz"
)

// Principal is the identity behind a session credential.
type Principal struct {
	UserID       string
	SessionID    string
	IsSuperAdmin bool
}

// Membership is a user's resolved standing in one organization.
type Membership struct {
	OrganizationID string
	Role           authz.Role
	Permissions    authz.PermissionSet
}

// SessionResolver maps an opaque credential to a principal.
type SessionResolver interface {
	// ResolvePrincipal returns nil, nil when the credential names no live
	// session. Errors are reserved for storage faults.
	ResolvePrincipal(ctx context.Context, credential string) (*Principal, error)
}

// MembershipResolver picks the organization a user acts within.
type MembershipResolver interface {
	// ResolveMembership returns nil, nil when the user holds no membership.
	// activeOrgHint is advisory and must be re-validated.
	ResolveMembership(ctx context.Context, userID, activeOrgHint string) (*Membership, error)
}

// AuthContext is the authorization snapshot for one request. It is built once
// per Scope and cannot be modified after construction.
type AuthContext struct {
	userID         string
	organizationID string
	role           authz.Role
	permissions    authz.PermissionSet
	isSuperAdmin   bool
}

// NewAuthContext builds a context from a resolved principal and membership.
func NewAuthContext(p Principal, m Membership) *AuthContext {
	return &AuthContext{
		userID:         p.UserID,
		organizationID: m.OrganizationID,
		role:           m.Role,
		permissions:    authz.NewPermissionSet(m.Permissions.Slice()...),
		isSuperAdmin:   p.IsSuperAdmin,
	}
}

func (c *AuthContext) UserID() string { return c.userID }

// OrganizationID is the only organization a gated operation may write to.
func (c *AuthContext) OrganizationID() string { return c.organizationID }

func (c *AuthContext) Role() authz.Role { return c.role }

func (c *AuthContext) IsSuperAdmin() bool { return c.isSuperAdmin }

// Permissions returns a sorted copy of the effective permissions.
func (c *AuthContext) Permissions() []authz.Permission {
	return c.permissions.Slice()
}

// Can reports whether the context holds every one of perms.
func (c *AuthContext) Can(perms ...authz.Permission) bool {
	return authz.HasAllPermissions(c.permissions, perms)
}

// UserContext is what super-admin and session-only operations receive. It
// carries no organization.
type UserContext struct {
	UserID       string
	IsSuperAdmin bool
}
