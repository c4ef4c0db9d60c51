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

package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/observability/logger"
)

// OutcomeGranted is the Decision outcome for calls that passed the gate.
// Denials use the failure Kind as outcome.
const OutcomeGranted = "granted"

// Decision describes one access decision.
type Decision struct {
	Gate           string
	UserID         string
	OrganizationID string

	// Role is the caller's role in OrganizationID, empty when none resolved.
	Role string

	Outcome  string
	Required []authz.Permission
}

// Granted reports whether the call was let through.
func (d Decision) Granted() bool {
	return d.Outcome == OutcomeGranted
}

// DecisionPublisher receives access decisions. Publish runs synchronously on
// the request path and must not block.
type DecisionPublisher interface {
	Publish(ctx context.Context, d Decision)
}

// PublisherFunc adapts a function to DecisionPublisher.
type PublisherFunc func(ctx context.Context, d Decision)

func (f PublisherFunc) Publish(ctx context.Context, d Decision) { f(ctx, d) }

// publish shields the gate from a misbehaving publisher.
func publish(ctx context.Context, p DecisionPublisher, d Decision) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "decision publisher panicked",
				logger.Component("access"),
				logger.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	p.Publish(ctx, d)
}

// NewAuditPublisher writes decisions to the security audit log.
func NewAuditPublisher(al *logger.AuditLogger) DecisionPublisher {
	return PublisherFunc(func(ctx context.Context, d Decision) {
		result := "denied"
		if d.Granted() {
			result = "granted"
		} else if d.Outcome == string(KindUnavailable) {
			result = "failed"
		}
		al.Log(ctx, logger.AuditEvent{
			EventType:      "authorization",
			UserID:         d.UserID,
			OrganizationID: d.OrganizationID,
			Action:         d.Gate,
			Result:         result,
			Reason:         reason(d),
			Metadata:       map[string]any{"required": permStrings(d.Required)},
		})
	})
}

func reason(d Decision) string {
	if d.Granted() {
		return ""
	}
	return d.Outcome
}
