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

package organization_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/audit"
	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/identity"
	"github.com/shopfloor/shopfloor/internal/organization"
	"github.com/shopfloor/shopfloor/internal/organization/orgtest"
	"github.com/shopfloor/shopfloor/internal/session"
)

type userMap map[string]*identity.User

func (u userMap) GetUser(ctx context.Context, id string) (*identity.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, identity.ErrUserNotFound
}

// principals maps the credential to the user it signs in.
func principals(users userMap) access.SessionResolver {
	return sessionFunc(func(ctx context.Context, cred string) (*access.Principal, error) {
		u, ok := users[cred]
		if !ok {
			return nil, nil
		}
		return &access.Principal{UserID: u.ID, SessionID: cred, IsSuperAdmin: u.IsSuperAdmin}, nil
	})
}

type fixture struct {
	store    *orgtest.Store
	users    userMap
	pointers *session.PointerSigner
	gate     *access.Gate
	svc      *organization.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := orgtest.New()
	users := userMap{
		"root":  {ID: "root", IsSuperAdmin: true},
		"alice": {ID: "alice"},
		"bob":   {ID: "bob"},
	}
	pointers, err := session.NewPointerSigner([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)

	resolver := organization.NewMembershipResolver(store, authz.NewRoleResolver(store), pointers)
	return &fixture{
		store:    store,
		users:    users,
		pointers: pointers,
		gate:     access.NewGate(principals(users), resolver),
		svc:      organization.NewService(store, store, users, pointers, audit.NewSlogLogger()),
	}
}

func currentOrg(t *testing.T, g *access.Gate, cred, hint string) string {
	t.Helper()
	ac, err := g.NewScope(cred, hint).AuthContext(context.Background())
	require.NoError(t, err)
	if ac == nil {
		return ""
	}
	return ac.OrganizationID()
}

// =============================================================================
// ORGANIZATION SERVICE TESTS
// Category: Organization Lifecycle
// Type: Unit Test (UT)
// =============================================================================

// TestPurpose: Validates that a super admin can create an organization with an Owner.
// Scope: Unit Test
// Security: Platform tier creates tenants
// Expected: Organization stored; named owner holds the Owner role and resolves into it.
// Test Case ID: ORG-01
func TestService_CreateOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.svc.CreateOrganization(ctx, f.gate.NewScope("root", ""), "  Main Street Garage ", "alice")
	require.True(t, res.OK(), "%v", res.Failure())
	org := res.Value()
	assert.Equal(t, "Main Street Garage", org.Name)
	assert.Equal(t, organization.StatusActive, org.Status)

	m, err := f.store.Get(ctx, org.ID, "alice")
	require.NoError(t, err)
	assert.True(t, m.Role.Is(authz.BuiltinOwner))
	assert.Equal(t, org.ID, currentOrg(t, f.gate, "alice", ""))

	all := f.svc.ListAll(ctx, f.gate.NewScope("root", ""), 0, 0)
	require.True(t, all.OK())
	assert.Len(t, all.Value(), 1)
}

// TestPurpose: Validates that organization roles never reach the platform tier.
// Scope: Unit Test
// Security: Privilege escalation prevention (CWE-269)
// Expected: An Owner without the flag is Forbidden and nothing is created.
// Test Case ID: ORG-02
func TestService_CreateOrganization_OwnerForbidden(t *testing.T) {
	f := newFixture(t)
	org := f.store.AddOrganization("Existing")
	f.store.AddMember(org, "alice", authz.Builtin(authz.BuiltinOwner))

	res := f.svc.CreateOrganization(context.Background(), f.gate.NewScope("alice", ""), "Another", "alice")
	assert.Equal(t, access.KindForbidden, res.Failure().Kind)

	list := f.svc.ListAll(context.Background(), f.gate.NewScope("alice", ""), 10, 0)
	assert.Equal(t, access.KindForbidden, list.Failure().Kind)

	orgs, err := f.store.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, orgs, 1)
}

// TestPurpose: Validates input checks on organization creation.
// Scope: Unit Test
// Expected: Empty name and unknown owner are operation failures carrying domain errors.
// Test Case ID: ORG-03
func TestService_CreateOrganization_Invalid(t *testing.T) {
	f := newFixture(t)
	scope := f.gate.NewScope("root", "")

	res := f.svc.CreateOrganization(context.Background(), scope, "   ", "alice")
	assert.Equal(t, access.KindOperationFailure, res.Failure().Kind)
	assert.ErrorIs(t, res.Failure(), organization.ErrInvalidOrganizationName)

	res = f.svc.CreateOrganization(context.Background(), scope, "Ghost Garage", "ghost")
	assert.ErrorIs(t, res.Failure(), identity.ErrUserNotFound)
}

// TestPurpose: Validates switching the active organization between requests.
// Scope: Unit Test
// Security: Tenant context changes only through a validated switch
// Expected: Before the switch the earliest org resolves; a request carrying the new pointer resolves to the target.
// Test Case ID: ORG-04
func TestService_SwitchOrganization(t *testing.T) {
	f := newFixture(t)
	a := f.store.AddOrganization("A")
	b := f.store.AddOrganization("B")
	f.store.AddMember(a, "alice", authz.Builtin(authz.BuiltinOwner))
	f.store.AddMember(b, "alice", authz.Builtin(authz.BuiltinMember))
	f.store.AddMember(a, "bob", authz.Builtin(authz.BuiltinMember))
	f.store.AddMember(b, "bob", authz.Builtin(authz.BuiltinMember))

	assert.Equal(t, a, currentOrg(t, f.gate, "alice", ""))

	res := f.svc.SwitchOrganization(context.Background(), f.gate.NewScope("alice", ""), b)
	require.True(t, res.OK(), "%v", res.Failure())
	pointer := res.Value()

	assert.Equal(t, b, currentOrg(t, f.gate, "alice", pointer))
	assert.Equal(t, a, currentOrg(t, f.gate, "bob", pointer), "pointer is bound to its user")
}

// TestPurpose: Validates that switching into a foreign organization is refused.
// Scope: Unit Test
// Security: Cross-tenant access prevention (CWE-639)
// Expected: ErrNotAMember; no pointer issued.
// Test Case ID: ORG-05
func TestService_SwitchOrganization_NotMember(t *testing.T) {
	f := newFixture(t)
	a := f.store.AddOrganization("A")
	foreign := f.store.AddOrganization("Foreign")
	f.store.AddMember(a, "alice", authz.Builtin(authz.BuiltinOwner))
	f.store.AddMember(foreign, "bob", authz.Builtin(authz.BuiltinOwner))

	res := f.svc.SwitchOrganization(context.Background(), f.gate.NewScope("alice", ""), foreign)
	require.False(t, res.OK())
	assert.Equal(t, access.KindOperationFailure, res.Failure().Kind)
	assert.ErrorIs(t, res.Failure(), organization.ErrNotAMember)
	assert.Empty(t, res.Value())
}

// TestPurpose: Validates listing a user's organizations with the active one marked.
// Scope: Unit Test
// Expected: Both memberships in creation order; only the resolved one is active.
// Test Case ID: ORG-06
func TestService_ListMyOrganizations(t *testing.T) {
	f := newFixture(t)
	a := f.store.AddOrganization("A")
	b := f.store.AddOrganization("B")
	f.store.AddMember(a, "alice", authz.Builtin(authz.BuiltinAdmin))
	f.store.AddMember(b, "alice", authz.Builtin(authz.BuiltinMember))

	pointer, err := f.pointers.Sign("alice", b)
	require.NoError(t, err)

	res := f.svc.ListMyOrganizations(context.Background(), f.gate.NewScope("alice", pointer))
	require.True(t, res.OK())
	list := res.Value()
	require.Len(t, list, 2)
	assert.Equal(t, a, list[0].Organization.ID)
	assert.False(t, list[0].Active)
	assert.Equal(t, b, list[1].Organization.ID)
	assert.True(t, list[1].Active)

	none := f.svc.ListMyOrganizations(context.Background(), f.gate.NewScope("bob", ""))
	assert.Equal(t, access.KindNoOrganization, none.Failure().Kind)
}
