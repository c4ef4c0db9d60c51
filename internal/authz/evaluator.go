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

import "sort"

// PermissionSet is an unordered set of permissions. The zero value is an
// empty set and is safe to read.
type PermissionSet struct {
	m map[Permission]struct{}
}

// NewPermissionSet builds a set from perms, dropping duplicates.
func NewPermissionSet(perms ...Permission) PermissionSet {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return PermissionSet{m: m}
}

// Contains reports whether p is in the set.
func (s PermissionSet) Contains(p Permission) bool {
	_, ok := s.m[p]
	return ok
}

// Len returns the number of permissions in the set.
func (s PermissionSet) Len() int {
	return len(s.m)
}

// Slice returns the members sorted by subject then action.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s.m))
	for p := range s.m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// Strings returns the members in "subject:action" form, sorted.
func (s PermissionSet) Strings() []string {
	perms := s.Slice()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = p.String()
	}
	return out
}

// HasPermission reports whether perms contains required. An empty set never
// grants anything.
func HasPermission(perms PermissionSet, required Permission) bool {
	return perms.Contains(required)
}

// HasAllPermissions reports whether every element of required is in perms.
// An empty requirement is satisfied by any set, including an empty one.
func HasAllPermissions(perms PermissionSet, required []Permission) bool {
	for _, p := range required {
		if !HasPermission(perms, p) {
			return false
		}
	}
	return true
}
