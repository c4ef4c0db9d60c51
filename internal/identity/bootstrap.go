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

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopfloor/shopfloor/internal/audit"
	"github.com/shopfloor/shopfloor/internal/observability/logger"
)

const (
	EnvBootstrapAdminEmail    = "SHOPFLOOR_BOOTSTRAP_ADMIN_EMAIL"
	EnvBootstrapAdminPassword = "SHOPFLOOR_BOOTSTRAP_ADMIN_PASSWORD"
)

// BootstrapService creates the first platform operator.
type BootstrapService struct {
	identityService *Service
	auditLogger     audit.Logger
}

// NewBootstrapService creates a new bootstrap service
func NewBootstrapService(identityService *Service, auditLogger audit.Logger) *BootstrapService {
	return &BootstrapService{
		identityService: identityService,
		auditLogger:     auditLogger,
	}
}

// Bootstrap grants the super-admin flag to the user named by
// SHOPFLOOR_BOOTSTRAP_ADMIN_EMAIL, creating the user when a password is also
// given. It does nothing when the variable is unset or when any super admin
// already exists.
func (s *BootstrapService) Bootstrap(ctx context.Context) error {
	email := normalizeEmail(os.Getenv(EnvBootstrapAdminEmail))
	password := os.Getenv(EnvBootstrapAdminPassword)
	if email == "" {
		return nil
	}

	repo := s.identityService.repo
	exists, err := repo.HasSuperAdmin(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing super admin: %w", err)
	}
	if exists {
		return nil
	}

	user, err := repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		if password == "" {
			return fmt.Errorf("bootstrap user %s not found and %s is unset", email, EnvBootstrapAdminPassword)
		}
		user, err = s.identityService.ProvisionUser(ctx, email, "")
		if err != nil {
			return fmt.Errorf("failed to create bootstrap user: %w", err)
		}
		if err := s.identityService.AddPassword(ctx, user.ID, password); err != nil {
			return fmt.Errorf("failed to set bootstrap password: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up bootstrap user: %w", err)
	}

	if err := repo.SetSuperAdmin(ctx, user.ID, true); err != nil {
		return fmt.Errorf("failed to grant super admin during bootstrap: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSuperAdminBootstrap,
		ActorID:  audit.ActorSystemBootstrap,
		Resource: audit.ResourcePlatform,
		Metadata: map[string]any{
			audit.AttrEmail:        email,
			audit.AttrTargetUserID: user.ID,
		},
	})
	slog.InfoContext(ctx, "bootstrapped initial super admin", logger.UserID(user.ID), logger.Email(email))
	return nil
}
