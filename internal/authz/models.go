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
	"time"
)

// Domain errors
var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrRoleAlreadyExists = errors.New("role already exists")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidPermission = errors.New("invalid permission")
	ErrInvalidRoleName   = errors.New("role name is required")
)

// CustomRole is an organization-owned role with an explicit permission list.
type CustomRole struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	Permissions    []Permission `json:"permissions"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// CustomRoleLookup loads the stored permission rows of a custom role.
type CustomRoleLookup interface {
	// RolePermissions returns ErrRoleNotFound when the role does not exist in
	// the organization.
	RolePermissions(ctx context.Context, organizationID, roleID string) ([]Permission, error)
}

// RoleRepository defines the interface for custom role persistence.
// Every method is scoped by organization.
type RoleRepository interface {
	CustomRoleLookup

	// Create creates a role together with its permission rows
	Create(ctx context.Context, role *CustomRole) error

	// GetByID retrieves a role by ID
	GetByID(ctx context.Context, organizationID, id string) (*CustomRole, error)

	// List retrieves all roles of an organization ordered by name
	List(ctx context.Context, organizationID string) ([]*CustomRole, error)

	// Update replaces name, description and the full permission list
	Update(ctx context.Context, role *CustomRole) error

	// Delete removes a role. Memberships referencing it are left in place.
	Delete(ctx context.Context, organizationID, id string) error
}
