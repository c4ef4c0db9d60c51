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
	"encoding/json"
	"fmt"
)

// -----------------------------------------------------------------------------
// Role Designations
// A membership carries exactly one Role: a built-in kind or a reference to a
// custom role owned by the same organization.
// -----------------------------------------------------------------------------

// BuiltinKind names a convention-based role.
type BuiltinKind string

const (
	// BuiltinOwner is granted the whole catalog. Every organization keeps at
	// least one.
	BuiltinOwner BuiltinKind = "owner"

	// BuiltinAdmin is granted the whole catalog.
	BuiltinAdmin BuiltinKind = "admin"

	// BuiltinMember is granted nothing.
	BuiltinMember BuiltinKind = "member"
)

// LabelCustom is the stored label for memberships that reference a custom role.
const LabelCustom = "custom"

// Valid reports whether k is a known built-in kind.
func (k BuiltinKind) Valid() bool {
	switch k {
	case BuiltinOwner, BuiltinAdmin, BuiltinMember:
		return true
	}
	return false
}

// Role is either Builtin(kind) or Custom(roleID). The zero value is invalid.
type Role struct {
	builtin  BuiltinKind
	customID string
}

// Builtin returns the built-in role of the given kind.
func Builtin(kind BuiltinKind) Role {
	return Role{builtin: kind}
}

// Custom returns a reference to the custom role with the given ID.
func Custom(roleID string) Role {
	return Role{customID: roleID}
}

// IsZero reports whether r was never assigned.
func (r Role) IsZero() bool {
	return r.builtin == "" && r.customID == ""
}

// BuiltinKind returns the kind and true for built-in roles.
func (r Role) BuiltinKind() (BuiltinKind, bool) {
	return r.builtin, r.builtin != ""
}

// CustomRoleID returns the referenced role ID and true for custom roles.
func (r Role) CustomRoleID() (string, bool) {
	return r.customID, r.customID != ""
}

// Is reports whether r is the built-in role of the given kind.
func (r Role) Is(kind BuiltinKind) bool {
	return r.builtin == kind
}

// Label returns the value stored in the membership role column.
func (r Role) Label() string {
	if r.customID != "" {
		return LabelCustom
	}
	return string(r.builtin)
}

func (r Role) String() string {
	if r.customID != "" {
		return LabelCustom + ":" + r.customID
	}
	return string(r.builtin)
}

// ParseRole converts the stored (label, custom_role_id) pair into a Role.
// A "member" label that still carries a custom role ID is read as the custom
// role it points at.
func ParseRole(label string, customRoleID *string) (Role, error) {
	if customRoleID != nil && *customRoleID != "" {
		if label == LabelCustom || label == string(BuiltinMember) {
			return Custom(*customRoleID), nil
		}
		return Role{}, fmt.Errorf("%w: %q cannot reference a custom role", ErrInvalidRole, label)
	}
	if label == LabelCustom {
		return Role{}, fmt.Errorf("%w: custom role without an id", ErrInvalidRole)
	}
	kind := BuiltinKind(label)
	if !kind.Valid() {
		return Role{}, fmt.Errorf("%w: %q", ErrInvalidRole, label)
	}
	return Builtin(kind), nil
}

type roleJSON struct {
	Kind   string `json:"kind"`
	Name   string `json:"name,omitempty"`
	RoleID string `json:"role_id,omitempty"`
}

func (r Role) MarshalJSON() ([]byte, error) {
	if r.customID != "" {
		return json.Marshal(roleJSON{Kind: LabelCustom, RoleID: r.customID})
	}
	return json.Marshal(roleJSON{Kind: "builtin", Name: string(r.builtin)})
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var v roleJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.Kind {
	case LabelCustom:
		if v.RoleID == "" {
			return fmt.Errorf("%w: custom role without an id", ErrInvalidRole)
		}
		*r = Custom(v.RoleID)
	case "builtin":
		kind := BuiltinKind(v.Name)
		if !kind.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidRole, v.Name)
		}
		*r = Builtin(kind)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRole, v.Kind)
	}
	return nil
}
