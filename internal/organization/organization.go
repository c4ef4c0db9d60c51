package organization

import (
	"time"

	"github.com/shopfloor/shopfloor/internal/authz"
)

// Organization is a tenant: one shop and everything it owns.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Membership ties a user to an organization with exactly one role.
type Membership struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	UserID         string     `json:"user_id"`
	Role           authz.Role `json:"role"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MyOrganization is one entry of a user's organization list.
type MyOrganization struct {
	Organization *Organization `json:"organization"`
	Role         authz.Role    `json:"role"`
	Active       bool          `json:"active"`
}
