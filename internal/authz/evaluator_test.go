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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// PERMISSION EVALUATION TESTS
// Category: Authz - Evaluator
// Type: Unit Test (UT)
// =============================================================================

// TestPurpose: Validates that an empty permission set never grants anything.
// Scope: Unit Test
// Security: Fail-closed authorization (CWE-285)
// Expected: HasPermission returns false for every catalog entry.
// Test Case ID: AZ-01
func TestHasPermission_EmptySetDeniesEverything(t *testing.T) {
	for _, p := range Catalog() {
		assert.False(t, HasPermission(PermissionSet{}, p), "AZ-01: empty set granted %s", p)
		assert.False(t, HasPermission(NewPermissionSet(), p))
	}
}

// TestPurpose: Validates structural equality on both fields of a permission.
// Scope: Unit Test
// Security: No partial or wildcard matches
// Expected: Only the exact pair matches.
// Test Case ID: AZ-02
func TestHasPermission_ExactPairOnly(t *testing.T) {
	readVehicles := Perm(ActionRead, SubjectVehicles)
	set := NewPermissionSet(readVehicles)

	tests := []struct {
		name string
		perm Permission
		want bool
	}{
		{"same pair", Perm(ActionRead, SubjectVehicles), true},
		{"different action", Perm(ActionUpdate, SubjectVehicles), false},
		{"different subject", Perm(ActionRead, SubjectQuotes), false},
		{"both different", Perm(ActionDelete, SubjectBilling), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(set, tt.perm))
		})
	}
}

// TestPurpose: Validates that an empty requirement list is vacuously satisfied.
// Scope: Unit Test
// Security: Session-only operations must not be blocked by an empty set
// Expected: HasAllPermissions returns true for empty and non-empty sets.
// Test Case ID: AZ-03
func TestHasAllPermissions_EmptyRequirement(t *testing.T) {
	assert.True(t, HasAllPermissions(PermissionSet{}, nil))
	assert.True(t, HasAllPermissions(PermissionSet{}, []Permission{}))
	assert.True(t, HasAllPermissions(NewPermissionSet(Perm(ActionRead, SubjectVehicles)), nil))
}

// TestPurpose: Validates that a non-empty requirement is never met by an empty set.
// Scope: Unit Test
// Security: Fail-closed authorization (CWE-285)
// Expected: HasAllPermissions returns false.
// Test Case ID: AZ-04
func TestHasAllPermissions_EmptySetNonEmptyRequirement(t *testing.T) {
	assert.False(t, HasAllPermissions(PermissionSet{}, []Permission{Perm(ActionRead, SubjectVehicles)}))
}

// TestPurpose: Validates that every required permission must be held individually.
// Scope: Unit Test
// Security: Partial grants must not satisfy compound requirements
// Expected: A set holding read but not update on vehicles fails a read+update requirement.
// Test Case ID: AZ-05
func TestHasAllPermissions_PartialGrantFails(t *testing.T) {
	set := NewPermissionSet(Perm(ActionRead, SubjectVehicles))

	assert.False(t, HasAllPermissions(set, []Permission{
		Perm(ActionRead, SubjectVehicles),
		Perm(ActionUpdate, SubjectVehicles),
	}))
	assert.True(t, HasAllPermissions(set, []Permission{
		Perm(ActionRead, SubjectVehicles),
		Perm(ActionRead, SubjectVehicles),
	}))
}

// TestPurpose: Validates that MANAGE does not imply the other actions.
// Scope: Unit Test
// Security: No implicit privilege hierarchy
// Expected: A set with only manage:quotes is denied create/read/update/delete on quotes.
// Test Case ID: AZ-06
func TestHasPermission_ManageIsNotHierarchical(t *testing.T) {
	set := NewPermissionSet(Perm(ActionManage, SubjectQuotes))

	for _, a := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete} {
		assert.False(t, HasPermission(set, Perm(a, SubjectQuotes)), "AZ-06: manage implied %s", a)
	}
	assert.True(t, HasPermission(set, Perm(ActionManage, SubjectQuotes)))
}

// =============================================================================
// CATALOG TESTS
// =============================================================================

// TestPurpose: Validates that the catalog is the complete Action x Subject product without duplicates.
// Scope: Unit Test
// Expected: Catalog size equals |actions| * |subjects| and every pair is present once.
// Test Case ID: AZ-07
func TestCatalog_FullProduct(t *testing.T) {
	catalog := Catalog()
	assert.Len(t, catalog, len(Actions())*len(Subjects()))

	set := NewPermissionSet(catalog...)
	assert.Equal(t, len(catalog), set.Len())
	for _, s := range Subjects() {
		for _, a := range Actions() {
			assert.True(t, set.Contains(Perm(a, s)))
		}
	}
}

// TestPurpose: Validates that callers cannot mutate the catalog through returned slices.
// Scope: Unit Test
// Security: Catalog integrity
// Expected: Modifying the returned slices does not change later results.
// Test Case ID: AZ-08
func TestCatalog_ReturnsCopies(t *testing.T) {
	s := Subjects()
	s[0] = "tampered"
	a := Actions()
	a[0] = "tampered"

	assert.Equal(t, SubjectVehicles, Subjects()[0])
	assert.Equal(t, ActionCreate, Actions()[0])
}

// TestPurpose: Validates parsing of the stored permission form.
// Scope: Unit Test
// Expected: Known tokens round-trip; unknown ones return ErrInvalidPermission.
// Test Case ID: AZ-09
func TestParsePermission(t *testing.T) {
	p, err := ParsePermission("vehicles:read")
	require.NoError(t, err)
	assert.Equal(t, Perm(ActionRead, SubjectVehicles), p)
	assert.Equal(t, "vehicles:read", p.String())

	for _, bad := range []string{"", "vehicles", "vehicles:fly", "spaceships:read", "*:*", "read:vehicles"} {
		_, err := ParsePermission(bad)
		assert.True(t, errors.Is(err, ErrInvalidPermission), "AZ-09: %q accepted", bad)
	}
}

// TestPurpose: Validates the deterministic ordering of set listings.
// Scope: Unit Test
// Expected: Strings are sorted by subject then action.
// Test Case ID: AZ-10
func TestPermissionSet_Strings(t *testing.T) {
	set := NewPermissionSet(
		Perm(ActionUpdate, SubjectVehicles),
		Perm(ActionRead, SubjectQuotes),
		Perm(ActionCreate, SubjectVehicles),
	)
	assert.Equal(t, []string{"quotes:read", "vehicles:create", "vehicles:update"}, set.Strings())
}
