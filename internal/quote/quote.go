package quote

import (
	"context"
	"errors"
	"time"
)

var (
	ErrQuoteNotFound = errors.New("quote not found")
	ErrInvalidQuote  = errors.New("invalid quote")
)

// Quote statuses
const (
	StatusDraft  = "draft"
	StatusShared = "shared"
)

// Quote is a priced estimate for work on one vehicle.
type Quote struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	VehicleID      string    `json:"vehicle_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	TotalCents     int64     `json:"total_cents"`
	Status         string    `json:"status"`
	ShareToken     string    `json:"share_token,omitempty"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PublicQuote is what a share link reveals to an anonymous reader.
type PublicQuote struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TotalCents  int64     `json:"total_cents"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Public strips organization-internal fields.
func (q *Quote) Public() *PublicQuote {
	return &PublicQuote{
		Title:       q.Title,
		Description: q.Description,
		TotalCents:  q.TotalCents,
		UpdatedAt:   q.UpdatedAt,
	}
}

// Input is the client-editable part of a quote.
type Input struct {
	VehicleID   string `json:"vehicle_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	TotalCents  int64  `json:"total_cents"`
}

// Repository defines quote storage. Reads other than GetByShareToken are
// keyed by organization.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	Get(ctx context.Context, organizationID, id string) (*Quote, error)
	List(ctx context.Context, organizationID string) ([]*Quote, error)

	// SetShareToken stores token and marks the quote shared.
	SetShareToken(ctx context.Context, organizationID, id, token string, at time.Time) error

	// GetByShareToken returns ErrQuoteNotFound for unknown tokens.
	GetByShareToken(ctx context.Context, token string) (*Quote, error)
}
