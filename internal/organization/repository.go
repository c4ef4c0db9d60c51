package organization

import (
	"context"
	"errors"

	"github.com/shopfloor/shopfloor/internal/authz"
)

var (
	ErrOrganizationNotFound    = errors.New("organization not found")
	ErrInvalidOrganizationName = errors.New("invalid organization name")
	ErrMembershipNotFound      = errors.New("membership not found")
	ErrMembershipExists        = errors.New("membership already exists")
	ErrNotAMember              = errors.New("not a member of the organization")
	ErrLastOwner               = errors.New("organization must keep at least one owner")
)

// Repository defines the interface for organization storage
type Repository interface {
	// CreateWithOwner stores org and owner atomically.
	CreateWithOwner(ctx context.Context, org *Organization, owner *Membership) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	List(ctx context.Context, limit, offset int) ([]*Organization, error)
}

// MembershipRepository defines the interface for membership storage.
type MembershipRepository interface {
	Create(ctx context.Context, m *Membership) error
	Get(ctx context.Context, organizationID, userID string) (*Membership, error)

	// ListForUser returns memberships in active organizations, oldest first
	// (created_at, then id).
	ListForUser(ctx context.Context, userID string) ([]*Membership, error)
	ListForOrganization(ctx context.Context, organizationID string) ([]*Membership, error)

	// UpdateRole and Delete return ErrLastOwner instead of leaving the
	// organization without an Owner. The check and the write are atomic.
	UpdateRole(ctx context.Context, organizationID, userID string, role authz.Role) error
	Delete(ctx context.Context, organizationID, userID string) error
}
