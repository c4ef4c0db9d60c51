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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/organization"
)

// OrganizationRepository implements organization.Repository
type OrganizationRepository struct {
	db *DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// CreateWithOwner stores the organization and its first Owner in one transaction
func (r *OrganizationRepository) CreateWithOwner(ctx context.Context, org *organization.Organization, owner *organization.Membership) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO organizations (id, name, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`, org.ID, org.Name, org.Status, org.CreatedAt, org.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert organization: %w", err)
		}
		return insertMembership(ctx, tx, owner)
	})
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*organization.Organization, error) {
	var org organization.Organization
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`, id).Scan(&org.ID, &org.Name, &org.Status, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, organization.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// List returns organizations ordered by name
func (r *OrganizationRepository) List(ctx context.Context, limit, offset int) ([]*organization.Organization, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM organizations
		ORDER BY name, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []*organization.Organization{}
	for rows.Next() {
		var org organization.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Status, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, &org)
	}
	return orgs, rows.Err()
}

// MembershipRepository implements organization.MembershipRepository
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func roleColumns(role authz.Role) (string, *string) {
	if id, ok := role.CustomRoleID(); ok {
		return role.Label(), &id
	}
	return role.Label(), nil
}

func insertMembership(ctx context.Context, db execer, m *organization.Membership) error {
	label, customID := roleColumns(m.Role)
	_, err := db.Exec(ctx, `
		INSERT INTO memberships (id, organization_id, user_id, role, custom_role_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.OrganizationID, m.UserID, label, customID, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return organization.ErrMembershipExists
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

const membershipColumns = `m.id, m.organization_id, m.user_id, m.role, m.custom_role_id, m.created_at`

func scanMembership(row pgx.Row) (*organization.Membership, error) {
	var m organization.Membership
	var label string
	var customID *string
	if err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &label, &customID, &m.CreatedAt); err != nil {
		return nil, err
	}
	role, err := authz.ParseRole(label, customID)
	if err != nil {
		return nil, fmt.Errorf("membership %s: %w", m.ID, err)
	}
	m.Role = role
	return &m, nil
}

func collectMemberships(rows pgx.Rows) ([]*organization.Membership, error) {
	defer rows.Close()
	out := []*organization.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create adds a membership
func (r *MembershipRepository) Create(ctx context.Context, m *organization.Membership) error {
	return insertMembership(ctx, r.db.pool, m)
}

// Get returns the membership of a user in an organization
func (r *MembershipRepository) Get(ctx context.Context, organizationID, userID string) (*organization.Membership, error) {
	m, err := scanMembership(r.db.pool.QueryRow(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships m
		WHERE m.organization_id = $1 AND m.user_id = $2
	`, organizationID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, organization.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// ListForUser returns memberships in active organizations, oldest first
func (r *MembershipRepository) ListForUser(ctx context.Context, userID string) ([]*organization.Membership, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships m
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = $1 AND o.status = 'active'
		ORDER BY m.created_at, m.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user memberships: %w", err)
	}
	return collectMemberships(rows)
}

// ListForOrganization returns all members of an organization
func (r *MembershipRepository) ListForOrganization(ctx context.Context, organizationID string) ([]*organization.Membership, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships m
		WHERE m.organization_id = $1
		ORDER BY m.created_at, m.id
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organization memberships: %w", err)
	}
	return collectMemberships(rows)
}

// lockForOwnerChange serializes owner-affecting writes of one organization
// and reports the target's current role and the number of owners.
func lockForOwnerChange(ctx context.Context, tx pgx.Tx, organizationID, userID string) (authz.Role, int, error) {
	var locked string
	err := tx.QueryRow(ctx, `SELECT id FROM organizations WHERE id = $1 FOR UPDATE`, organizationID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.Role{}, 0, organization.ErrMembershipNotFound
		}
		return authz.Role{}, 0, fmt.Errorf("failed to lock organization: %w", err)
	}

	current, err := scanMembership(tx.QueryRow(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships m
		WHERE m.organization_id = $1 AND m.user_id = $2
	`, organizationID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.Role{}, 0, organization.ErrMembershipNotFound
		}
		return authz.Role{}, 0, fmt.Errorf("failed to get membership: %w", err)
	}

	var owners int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM memberships
		WHERE organization_id = $1 AND role = 'owner'
	`, organizationID).Scan(&owners)
	if err != nil {
		return authz.Role{}, 0, fmt.Errorf("failed to count owners: %w", err)
	}
	return current.Role, owners, nil
}

// UpdateRole changes a member's role, refusing to demote the last Owner
func (r *MembershipRepository) UpdateRole(ctx context.Context, organizationID, userID string, role authz.Role) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		current, owners, err := lockForOwnerChange(ctx, tx, organizationID, userID)
		if err != nil {
			return err
		}
		if current.Is(authz.BuiltinOwner) && !role.Is(authz.BuiltinOwner) && owners <= 1 {
			return organization.ErrLastOwner
		}

		label, customID := roleColumns(role)
		_, err = tx.Exec(ctx, `
			UPDATE memberships SET role = $3, custom_role_id = $4
			WHERE organization_id = $1 AND user_id = $2
		`, organizationID, userID, label, customID)
		if err != nil {
			return fmt.Errorf("failed to update membership role: %w", err)
		}
		return nil
	})
}

// Delete removes a membership, refusing to remove the last Owner
func (r *MembershipRepository) Delete(ctx context.Context, organizationID, userID string) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		current, owners, err := lockForOwnerChange(ctx, tx, organizationID, userID)
		if err != nil {
			return err
		}
		if current.Is(authz.BuiltinOwner) && owners <= 1 {
			return organization.ErrLastOwner
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM memberships WHERE organization_id = $1 AND user_id = $2
		`, organizationID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete membership: %w", err)
		}
		return nil
	})
}
