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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shopfloor/shopfloor/internal/quote"
	"github.com/shopfloor/shopfloor/internal/vehicle"
)

// VehicleRepository implements vehicle.Repository
type VehicleRepository struct {
	db *DB
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db *DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const vehicleColumns = `id, organization_id, vin, make, model, year, plate, customer_name, created_at, updated_at`

func scanVehicle(row pgx.Row) (*vehicle.Vehicle, error) {
	var v vehicle.Vehicle
	err := row.Scan(
		&v.ID, &v.OrganizationID, &v.VIN, &v.Make, &v.Model, &v.Year,
		&v.Plate, &v.CustomerName, &v.CreatedAt, &v.UpdatedAt,
	)
	return &v, err
}

// Create stores a vehicle
func (r *VehicleRepository) Create(ctx context.Context, v *vehicle.Vehicle) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO vehicles (`+vehicleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, v.ID, v.OrganizationID, v.VIN, v.Make, v.Model, v.Year, v.Plate, v.CustomerName, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert vehicle: %w", err)
	}
	return nil
}

// Get retrieves a vehicle of an organization
func (r *VehicleRepository) Get(ctx context.Context, organizationID, id string) (*vehicle.Vehicle, error) {
	v, err := scanVehicle(r.db.pool.QueryRow(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles
		WHERE organization_id = $1 AND id = $2
	`, organizationID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, vehicle.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return v, nil
}

// List returns the vehicles of an organization, newest first
func (r *VehicleRepository) List(ctx context.Context, organizationID string) ([]*vehicle.Vehicle, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles
		WHERE organization_id = $1
		ORDER BY created_at DESC, id DESC
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	out := []*vehicle.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Update replaces the editable fields of a vehicle
func (r *VehicleRepository) Update(ctx context.Context, v *vehicle.Vehicle) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE vehicles
		SET vin = $3, make = $4, model = $5, year = $6, plate = $7, customer_name = $8, updated_at = $9
		WHERE organization_id = $1 AND id = $2
	`, v.OrganizationID, v.ID, v.VIN, v.Make, v.Model, v.Year, v.Plate, v.CustomerName, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	if result.RowsAffected() == 0 {
		return vehicle.ErrVehicleNotFound
	}
	return nil
}

// Delete removes a vehicle
func (r *VehicleRepository) Delete(ctx context.Context, organizationID, id string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM vehicles WHERE organization_id = $1 AND id = $2
	`, organizationID, id)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	if result.RowsAffected() == 0 {
		return vehicle.ErrVehicleNotFound
	}
	return nil
}

// QuoteRepository implements quote.Repository
type QuoteRepository struct {
	db *DB
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `id, organization_id, vehicle_id, title, description, total_cents, status,
	COALESCE(share_token, ''), created_by, created_at, updated_at`

func scanQuote(row pgx.Row) (*quote.Quote, error) {
	var q quote.Quote
	err := row.Scan(
		&q.ID, &q.OrganizationID, &q.VehicleID, &q.Title, &q.Description, &q.TotalCents,
		&q.Status, &q.ShareToken, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, quote.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &q, nil
}

// Create stores a quote
func (r *QuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO quotes (id, organization_id, vehicle_id, title, description, total_cents, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, q.ID, q.OrganizationID, q.VehicleID, q.Title, q.Description, q.TotalCents, q.Status, q.CreatedBy, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

// Get retrieves a quote of an organization
func (r *QuoteRepository) Get(ctx context.Context, organizationID, id string) (*quote.Quote, error) {
	return scanQuote(r.db.pool.QueryRow(ctx, `
		SELECT `+quoteColumns+` FROM quotes
		WHERE organization_id = $1 AND id = $2
	`, organizationID, id))
}

// List returns the quotes of an organization, newest first
func (r *QuoteRepository) List(ctx context.Context, organizationID string) ([]*quote.Quote, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+quoteColumns+` FROM quotes
		WHERE organization_id = $1
		ORDER BY created_at DESC, id DESC
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	out := []*quote.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// SetShareToken stores token and marks the quote shared
func (r *QuoteRepository) SetShareToken(ctx context.Context, organizationID, id, token string, at time.Time) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE quotes SET share_token = $3, status = $4, updated_at = $5
		WHERE organization_id = $1 AND id = $2
	`, organizationID, id, token, quote.StatusShared, at)
	if err != nil {
		return fmt.Errorf("failed to share quote: %w", err)
	}
	if result.RowsAffected() == 0 {
		return quote.ErrQuoteNotFound
	}
	return nil
}

// GetByShareToken looks a quote up by its public token
func (r *QuoteRepository) GetByShareToken(ctx context.Context, token string) (*quote.Quote, error) {
	return scanQuote(r.db.pool.QueryRow(ctx, `
		SELECT `+quoteColumns+` FROM quotes
		WHERE share_token = $1
	`, token))
}
