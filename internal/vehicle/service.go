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

package vehicle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/id"
)

// Service exposes gated vehicle operations.
type Service struct {
	repo Repository
}

// NewService creates a new vehicle service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func perm(a authz.Action) access.Requirement {
	return access.Require(authz.Perm(a, authz.SubjectVehicles))
}

// List lists the vehicles of the caller's organization.
func (s *Service) List(ctx context.Context, scope *access.Scope) access.Result[[]*Vehicle] {
	return access.WithAuth(ctx, scope, perm(authz.ActionRead),
		func(ctx context.Context, ac *access.AuthContext) ([]*Vehicle, error) {
			return s.repo.List(ctx, ac.OrganizationID())
		})
}

// Get returns one vehicle.
func (s *Service) Get(ctx context.Context, scope *access.Scope, vehicleID string) access.Result[*Vehicle] {
	return access.WithAuth(ctx, scope, perm(authz.ActionRead),
		func(ctx context.Context, ac *access.AuthContext) (*Vehicle, error) {
			return s.repo.Get(ctx, ac.OrganizationID(), vehicleID)
		})
}

// Create adds a vehicle to the caller's organization.
func (s *Service) Create(ctx context.Context, scope *access.Scope, in Input) access.Result[*Vehicle] {
	return access.WithAuth(ctx, scope, perm(authz.ActionCreate),
		func(ctx context.Context, ac *access.AuthContext) (*Vehicle, error) {
			in, err := normalize(in)
			if err != nil {
				return nil, err
			}
			now := time.Now()
			v := &Vehicle{
				ID:             id.NewUUIDv7(),
				OrganizationID: ac.OrganizationID(),
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			apply(v, in)
			if err := s.repo.Create(ctx, v); err != nil {
				return nil, fmt.Errorf("failed to create vehicle: %w", err)
			}
			return v, nil
		})
}

// Update replaces the editable fields of a vehicle.
func (s *Service) Update(ctx context.Context, scope *access.Scope, vehicleID string, in Input) access.Result[*Vehicle] {
	return access.WithAuth(ctx, scope, perm(authz.ActionUpdate),
		func(ctx context.Context, ac *access.AuthContext) (*Vehicle, error) {
			in, err := normalize(in)
			if err != nil {
				return nil, err
			}
			v, err := s.repo.Get(ctx, ac.OrganizationID(), vehicleID)
			if err != nil {
				return nil, err
			}
			apply(v, in)
			v.UpdatedAt = time.Now()
			if err := s.repo.Update(ctx, v); err != nil {
				return nil, err
			}
			return v, nil
		})
}

// Delete removes a vehicle.
func (s *Service) Delete(ctx context.Context, scope *access.Scope, vehicleID string) access.Result[struct{}] {
	return access.WithAuth(ctx, scope, perm(authz.ActionDelete),
		func(ctx context.Context, ac *access.AuthContext) (struct{}, error) {
			return struct{}{}, s.repo.Delete(ctx, ac.OrganizationID(), vehicleID)
		})
}

func normalize(in Input) (Input, error) {
	in.VIN = strings.ToUpper(strings.TrimSpace(in.VIN))
	in.Make = strings.TrimSpace(in.Make)
	in.Model = strings.TrimSpace(in.Model)
	in.Plate = strings.ToUpper(strings.TrimSpace(in.Plate))
	in.CustomerName = strings.TrimSpace(in.CustomerName)

	if in.Make == "" || in.Model == "" {
		return in, fmt.Errorf("%w: make and model are required", ErrInvalidVehicle)
	}
	if in.VIN != "" && len(in.VIN) != 17 {
		return in, fmt.Errorf("%w: vin must be 17 characters", ErrInvalidVehicle)
	}
	if in.Year != 0 && (in.Year < 1886 || in.Year > time.Now().Year()+1) {
		return in, fmt.Errorf("%w: year out of range", ErrInvalidVehicle)
	}
	return in, nil
}

func apply(v *Vehicle, in Input) {
	v.VIN = in.VIN
	v.Make = in.Make
	v.Model = in.Model
	v.Year = in.Year
	v.Plate = in.Plate
	v.CustomerName = in.CustomerName
}
