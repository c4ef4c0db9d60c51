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
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Actions
// Flat and independent: no action implies another.
// -----------------------------------------------------------------------------

// Action is a discrete operation kind.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

var actions = []Action{
	ActionCreate,
	ActionRead,
	ActionUpdate,
	ActionDelete,
	ActionManage,
}

// -----------------------------------------------------------------------------
// Subjects
// Append only. Owner and Admin pick up new subjects automatically; custom
// roles never do.
// -----------------------------------------------------------------------------

// Subject is a protected resource category.
type Subject string

const (
	SubjectVehicles  Subject = "vehicles"
	SubjectQuotes    Subject = "quotes"
	SubjectInvoices  Subject = "invoices"
	SubjectServices  Subject = "services"
	SubjectCustomers Subject = "customers"
	SubjectFiles     Subject = "files"
	SubjectTeam      Subject = "team"
	SubjectRoles     Subject = "roles"
	SubjectSettings  Subject = "settings"
	SubjectBilling   Subject = "billing"
)

var subjects = []Subject{
	SubjectVehicles,
	SubjectQuotes,
	SubjectInvoices,
	SubjectServices,
	SubjectCustomers,
	SubjectFiles,
	SubjectTeam,
	SubjectRoles,
	SubjectSettings,
	SubjectBilling,
}

// Actions returns every known action.
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// Subjects returns every known subject.
func Subjects() []Subject {
	out := make([]Subject, len(subjects))
	copy(out, subjects)
	return out
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, known := range actions {
		if a == known {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known subject.
func (s Subject) Valid() bool {
	for _, known := range subjects {
		if s == known {
			return true
		}
	}
	return false
}

// Permission is an (action, subject) pair. Equality is structural and there
// are no wildcards.
type Permission struct {
	Action  Action  `json:"action"`
	Subject Subject `json:"subject"`
}

// Perm is shorthand for building a Permission.
func Perm(action Action, subject Subject) Permission {
	return Permission{Action: action, Subject: subject}
}

// String renders the storage form "subject:action".
func (p Permission) String() string {
	return string(p.Subject) + ":" + string(p.Action)
}

// Valid reports whether both halves are in the catalog.
func (p Permission) Valid() bool {
	return p.Action.Valid() && p.Subject.Valid()
}

// ParsePermission parses the "subject:action" form.
func ParsePermission(s string) (Permission, error) {
	subject, action, ok := strings.Cut(s, ":")
	if !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrInvalidPermission, s)
	}
	p := Permission{Action: Action(action), Subject: Subject(subject)}
	if !p.Valid() {
		return Permission{}, fmt.Errorf("%w: %q", ErrInvalidPermission, s)
	}
	return p, nil
}

// Catalog returns the full Action x Subject product. It is computed on every
// call so that roles granted the whole catalog always see current subjects.
func Catalog() []Permission {
	out := make([]Permission, 0, len(actions)*len(subjects))
	for _, s := range subjects {
		for _, a := range actions {
			out = append(out, Permission{Action: a, Subject: s})
		}
	}
	return out
}
