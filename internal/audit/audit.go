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

package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Event types
const (
	TypeLoginSuccess         = "login_success"
	TypeLoginFailed          = "login_failed"
	TypeLogout               = "logout"
	TypeUserCreated          = "user_created"
	TypeUserLocked           = "user_locked"
	TypePasswordChanged      = "password_changed"
	TypeSuperAdminBootstrap  = "super_admin_bootstrap"
	TypeOrganizationCreated  = "organization_created"
	TypeOrganizationSwitched = "organization_switched"
	TypeMemberAdded          = "member_added"
	TypeMemberRoleChanged    = "member_role_changed"
	TypeMemberRemoved        = "member_removed"
	TypeRoleCreated          = "role_created"
	TypeRoleUpdated          = "role_updated"
	TypeRoleDeleted          = "role_deleted"
	TypeQuoteShared          = "quote_shared"
)

// Actors that are not users
const (
	ActorSystemBootstrap = "system:bootstrap"
)

// Resources
const (
	ResourcePlatform = "platform"
	ResourceLogin    = "login"
)

// Metadata keys
const (
	AttrEmail          = "email"
	AttrReason         = "reason"
	AttrAttempts       = "attempts"
	AttrRole           = "role"
	AttrPreviousRole   = "previous_role"
	AttrTargetUserID   = "target_user_id"
	AttrOrganizationID = "organization_id"
	AttrPermissions    = "permissions"
	AttrName           = "name"
	AttrQuoteID        = "quote_id"
	AttrVehicleID      = "vehicle_id"
)

// Event represents an auditable action
type Event struct {
	Type           string
	OrganizationID string
	ActorID        string
	Resource       string
	Metadata       map[string]any
	Timestamp      time.Time
	IPAddress      string
	UserAgent      string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates an audit logger writing to the default slog logger.
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// NewSlogLoggerWith writes to l instead of the default logger.
func NewSlogLoggerWith(l *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: l}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("organization_id", event.OrganizationID),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	out := l.logger
	if out == nil {
		out = slog.Default()
	}
	out.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	key = strings.ToLower(key)
	secrets := []string{"password", "secret", "token", "key", "authorization", "hash", "credential"}
	for _, s := range secrets {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
