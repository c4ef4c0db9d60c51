package vehicle

import (
	"context"
	"errors"
	"time"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrInvalidVehicle  = errors.New("invalid vehicle")
)

// Vehicle is a customer vehicle serviced by an organization.
type Vehicle struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	VIN            string    `json:"vin,omitempty"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year,omitempty"`
	Plate          string    `json:"plate,omitempty"`
	CustomerName   string    `json:"customer_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Input is the client-editable part of a vehicle.
type Input struct {
	VIN          string `json:"vin"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Plate        string `json:"plate"`
	CustomerName string `json:"customer_name"`
}

// Repository defines vehicle storage. Every read and write is keyed by
// organization; a vehicle of another organization is ErrVehicleNotFound.
type Repository interface {
	Create(ctx context.Context, v *Vehicle) error
	Get(ctx context.Context, organizationID, id string) (*Vehicle, error)
	List(ctx context.Context, organizationID string) ([]*Vehicle, error)
	Update(ctx context.Context, v *Vehicle) error
	Delete(ctx context.Context, organizationID, id string) error
}
