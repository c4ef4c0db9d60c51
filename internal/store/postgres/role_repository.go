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
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shopfloor/shopfloor/internal/authz"
)

// RoleRepository implements authz.RoleRepository
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new custom role repository
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// RolePermissions returns the stored permission rows of a role. A role with
// no rows yields an empty slice; a missing role yields authz.ErrRoleNotFound.
func (r *RoleRepository) RolePermissions(ctx context.Context, organizationID, roleID string) ([]authz.Permission, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT rp.action, rp.subject
		FROM custom_roles cr
		LEFT JOIN role_permissions rp ON rp.role_id = cr.id
		WHERE cr.id = $1 AND cr.organization_id = $2
	`, roleID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query role permissions: %w", err)
	}
	defer rows.Close()

	found := false
	perms := []authz.Permission{}
	for rows.Next() {
		var action, subject *string
		if err := rows.Scan(&action, &subject); err != nil {
			return nil, fmt.Errorf("failed to scan role permission: %w", err)
		}
		found = true
		if action != nil && subject != nil {
			perms = append(perms, authz.Perm(authz.Action(*action), authz.Subject(*subject)))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read role permissions: %w", err)
	}
	if !found {
		return nil, authz.ErrRoleNotFound
	}
	return perms, nil
}

func insertPermissions(ctx context.Context, tx pgx.Tx, roleID string, perms []authz.Permission) error {
	for _, p := range perms {
		_, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, action, subject)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, roleID, string(p.Action), string(p.Subject))
		if err != nil {
			return fmt.Errorf("failed to insert role permission: %w", err)
		}
	}
	return nil
}

// Create creates a role together with its permission rows
func (r *RoleRepository) Create(ctx context.Context, role *authz.CustomRole) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO custom_roles (id, organization_id, name, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, role.ID, role.OrganizationID, role.Name, role.Description, role.CreatedAt, role.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return authz.ErrRoleAlreadyExists
			}
			return fmt.Errorf("failed to insert role: %w", err)
		}
		return insertPermissions(ctx, tx, role.ID, role.Permissions)
	})
}

// GetByID retrieves a role by ID
func (r *RoleRepository) GetByID(ctx context.Context, organizationID, id string) (*authz.CustomRole, error) {
	roles, err := r.query(ctx, `WHERE cr.organization_id = $1 AND cr.id = $2`, organizationID, id)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, authz.ErrRoleNotFound
	}
	return roles[0], nil
}

// List retrieves all roles of an organization ordered by name
func (r *RoleRepository) List(ctx context.Context, organizationID string) ([]*authz.CustomRole, error) {
	return r.query(ctx, `WHERE cr.organization_id = $1`, organizationID)
}

func (r *RoleRepository) query(ctx context.Context, where string, args ...any) ([]*authz.CustomRole, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT cr.id, cr.organization_id, cr.name, cr.description, cr.created_at, cr.updated_at,
			rp.action, rp.subject
		FROM custom_roles cr
		LEFT JOIN role_permissions rp ON rp.role_id = cr.id
		`+where+`
		ORDER BY cr.name, cr.id, rp.subject, rp.action
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	roles := []*authz.CustomRole{}
	var current *authz.CustomRole
	for rows.Next() {
		var role authz.CustomRole
		var action, subject *string
		if err := rows.Scan(
			&role.ID, &role.OrganizationID, &role.Name, &role.Description,
			&role.CreatedAt, &role.UpdatedAt, &action, &subject,
		); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if current == nil || current.ID != role.ID {
			role.Permissions = []authz.Permission{}
			current = &role
			roles = append(roles, current)
		}
		if action != nil && subject != nil {
			current.Permissions = append(current.Permissions, authz.Perm(authz.Action(*action), authz.Subject(*subject)))
		}
	}
	return roles, rows.Err()
}

// Update replaces name, description and the full permission list
func (r *RoleRepository) Update(ctx context.Context, role *authz.CustomRole) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE custom_roles SET name = $3, description = $4, updated_at = $5
			WHERE id = $1 AND organization_id = $2
		`, role.ID, role.OrganizationID, role.Name, role.Description, role.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return authz.ErrRoleAlreadyExists
			}
			return fmt.Errorf("failed to update role: %w", err)
		}
		if result.RowsAffected() == 0 {
			return authz.ErrRoleNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, role.ID); err != nil {
			return fmt.Errorf("failed to clear role permissions: %w", err)
		}
		return insertPermissions(ctx, tx, role.ID, role.Permissions)
	})
}

// Delete removes a role. Memberships referencing it are left in place.
func (r *RoleRepository) Delete(ctx context.Context, organizationID, id string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM custom_roles WHERE id = $1 AND organization_id = $2
	`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authz.ErrRoleNotFound
	}
	return nil
}

var _ authz.RoleRepository = (*RoleRepository)(nil)
