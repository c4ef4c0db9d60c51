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

// Package orgtest provides an in-memory organization, membership and custom
// role store for tests.
package orgtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/id"
	"github.com/shopfloor/shopfloor/internal/organization"
)

// Store implements organization.Repository, organization.MembershipRepository
// and authz.RoleRepository in memory.
type Store struct {
	mu      sync.Mutex
	orgs    map[string]*organization.Organization
	members []*organization.Membership
	roles   map[string]*authz.CustomRole
	clock   time.Time

	// RolePermissionsCalls counts custom role lookups.
	RolePermissionsCalls int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		orgs:  make(map[string]*organization.Organization),
		roles: make(map[string]*authz.CustomRole),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so creation order is stable.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// AddOrganization stores an active organization and returns its ID.
func (s *Store) AddOrganization(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	org := &organization.Organization{ID: id.NewUUIDv7(), Name: name, Status: organization.StatusActive, CreatedAt: now, UpdatedAt: now}
	s.orgs[org.ID] = org
	return org.ID
}

// SetStatus changes an organization's status.
func (s *Store) SetStatus(orgID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[orgID].Status = status
}

// AddMember stores a membership created after all earlier ones.
func (s *Store) AddMember(orgID, userID string, role authz.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append(s.members, &organization.Membership{
		ID: id.NewUUIDv7(), OrganizationID: orgID, UserID: userID, Role: role, CreatedAt: s.tick(),
	})
}

// AddRole stores a custom role and returns its ID.
func (s *Store) AddRole(orgID, name string, perms ...authz.Permission) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	r := &authz.CustomRole{ID: id.NewUUIDv7(), OrganizationID: orgID, Name: name, Permissions: perms, CreatedAt: now, UpdatedAt: now}
	s.roles[r.ID] = r
	return r.ID
}

// organization.Repository

func (s *Store) CreateWithOwner(ctx context.Context, org *organization.Organization, owner *organization.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *org
	s.orgs[org.ID] = &cp
	m := *owner
	m.CreatedAt = s.tick()
	s.members = append(s.members, &m)
	return nil
}

func (s *Store) GetByID(ctx context.Context, orgID string) (*organization.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, organization.ErrOrganizationNotFound
	}
	cp := *org
	return &cp, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]*organization.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*organization.Organization
	for _, org := range s.orgs {
		cp := *org
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if offset >= len(out) {
		return []*organization.Organization{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// organization.MembershipRepository

func (s *Store) Create(ctx context.Context, m *organization.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(m.OrganizationID, m.UserID) != nil {
		return organization.ErrMembershipExists
	}
	cp := *m
	cp.CreatedAt = s.tick()
	s.members = append(s.members, &cp)
	return nil
}

func (s *Store) Get(ctx context.Context, orgID, userID string) (*organization.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.find(orgID, userID)
	if m == nil {
		return nil, organization.ErrMembershipNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Store) ListForUser(ctx context.Context, userID string) ([]*organization.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*organization.Membership
	for _, m := range s.members {
		org, ok := s.orgs[m.OrganizationID]
		if m.UserID == userID && ok && org.Status == organization.StatusActive {
			cp := *m
			out = append(out, &cp)
		}
	}
	sortMemberships(out)
	return out, nil
}

func (s *Store) ListForOrganization(ctx context.Context, orgID string) ([]*organization.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*organization.Membership
	for _, m := range s.members {
		if m.OrganizationID == orgID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sortMemberships(out)
	return out, nil
}

func (s *Store) UpdateRole(ctx context.Context, orgID, userID string, role authz.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.find(orgID, userID)
	if m == nil {
		return organization.ErrMembershipNotFound
	}
	if m.Role.Is(authz.BuiltinOwner) && !role.Is(authz.BuiltinOwner) && s.owners(orgID) == 1 {
		return organization.ErrLastOwner
	}
	m.Role = role
	return nil
}

func (s *Store) Delete(ctx context.Context, orgID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.members {
		if m.OrganizationID == orgID && m.UserID == userID {
			if m.Role.Is(authz.BuiltinOwner) && s.owners(orgID) == 1 {
				return organization.ErrLastOwner
			}
			s.members = append(s.members[:i], s.members[i+1:]...)
			return nil
		}
	}
	return organization.ErrMembershipNotFound
}

// authz.RoleRepository

func (s *Store) RolePermissions(ctx context.Context, orgID, roleID string) ([]authz.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RolePermissionsCalls++
	r, ok := s.roles[roleID]
	if !ok || r.OrganizationID != orgID {
		return nil, authz.ErrRoleNotFound
	}
	return append([]authz.Permission(nil), r.Permissions...), nil
}

// Roles returns the store as an authz.RoleRepository. Its method set
// overlaps with the membership repository, so the adapter disambiguates.
func (s *Store) Roles() authz.RoleRepository {
	return roleRepo{s}
}

type roleRepo struct{ s *Store }

func (r roleRepo) RolePermissions(ctx context.Context, orgID, roleID string) ([]authz.Permission, error) {
	return r.s.RolePermissions(ctx, orgID, roleID)
}

func (r roleRepo) Create(ctx context.Context, role *authz.CustomRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles {
		if existing.OrganizationID == role.OrganizationID && existing.Name == role.Name {
			return authz.ErrRoleAlreadyExists
		}
	}
	cp := *role
	r.s.roles[role.ID] = &cp
	return nil
}

func (r roleRepo) GetByID(ctx context.Context, orgID, roleID string) (*authz.CustomRole, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[roleID]
	if !ok || role.OrganizationID != orgID {
		return nil, authz.ErrRoleNotFound
	}
	cp := *role
	return &cp, nil
}

func (r roleRepo) List(ctx context.Context, orgID string) ([]*authz.CustomRole, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*authz.CustomRole{}
	for _, role := range r.s.roles {
		if role.OrganizationID == orgID {
			cp := *role
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r roleRepo) Update(ctx context.Context, role *authz.CustomRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.roles[role.ID]
	if !ok || existing.OrganizationID != role.OrganizationID {
		return authz.ErrRoleNotFound
	}
	cp := *role
	r.s.roles[role.ID] = &cp
	return nil
}

func (r roleRepo) Delete(ctx context.Context, orgID, roleID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[roleID]
	if !ok || role.OrganizationID != orgID {
		return authz.ErrRoleNotFound
	}
	delete(r.s.roles, roleID)
	return nil
}

func (s *Store) find(orgID, userID string) *organization.Membership {
	for _, m := range s.members {
		if m.OrganizationID == orgID && m.UserID == userID {
			return m
		}
	}
	return nil
}

func (s *Store) owners(orgID string) int {
	n := 0
	for _, m := range s.members {
		if m.OrganizationID == orgID && m.Role.Is(authz.BuiltinOwner) {
			n++
		}
	}
	return n
}

func sortMemberships(ms []*organization.Membership) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].CreatedAt.Before(ms[j].CreatedAt)
		}
		return ms[i].ID < ms[j].ID
	})
}
