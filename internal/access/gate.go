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

// Package access is the enforcement boundary for every protected operation.
//
// A request builds one Scope, then runs each operation through WithAuth or
// WithSuperAdmin. The gate resolves who the caller is and which organization
// they act within, checks the declared permissions, and only then invokes the
// operation. Every call returns a Result; errors and panics raised by the
// operation are converted to a KindOperationFailure result.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/observability/logger"
	"github.com/shopfloor/shopfloor/internal/observability/metrics"
	"github.com/shopfloor/shopfloor/internal/observability/tracing"
)

const instrumentationName = "github.com/shopfloor/shopfloor/internal/access"

// Gate names reported in spans, metrics and decisions.
const (
	GateAuth       = "with_auth"
	GateSuperAdmin = "with_super_admin"
	GateSession    = "with_session"
)

// Gate holds the resolvers and instrumentation shared by all requests.
// It keeps no per-request state.
type Gate struct {
	sessions    SessionResolver
	memberships MembershipResolver
	publisher   DecisionPublisher
	tracer      trace.Tracer
	decisions   metric.Int64Counter
	resolveTime metric.Float64Histogram
}

// Option configures a Gate.
type Option func(*Gate)

// WithPublisher sends every access decision to p.
func WithPublisher(p DecisionPublisher) Option {
	return func(g *Gate) { g.publisher = p }
}

// WithTracer records a span per gated call.
func WithTracer(t *tracing.Tracer) Option {
	return func(g *Gate) { g.tracer = t.GetTracer() }
}

// WithMetrics counts decisions by gate and outcome and times scope
// resolution.
func WithMetrics(m *metrics.Meter) Option {
	return func(g *Gate) {
		counter, err := m.CreateCounter("access.decisions", "Access decisions by gate and outcome")
		if err != nil {
			slog.Error("failed to create decision counter", logger.Error(err))
			return
		}
		g.decisions = counter

		hist, err := m.CreateHistogram("access.resolve.duration", "Time to resolve a request's principal and membership", "ms")
		if err != nil {
			slog.Error("failed to create resolve histogram", logger.Error(err))
			return
		}
		g.resolveTime = hist
	}
}

// NewGate creates a gate. Without options it uses the global OTel providers.
func NewGate(sessions SessionResolver, memberships MembershipResolver, opts ...Option) *Gate {
	g := &Gate{
		sessions:    sessions,
		memberships: memberships,
		tracer:      otel.Tracer(instrumentationName),
	}
	if counter, err := otel.Meter(instrumentationName).Int64Counter("access.decisions"); err == nil {
		g.decisions = counter
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Requirement declares what a gated operation needs.
type Requirement struct {
	Permissions []authz.Permission
}

// Require declares that the caller must hold every one of perms. No perms
// means any member of an organization may proceed.
func Require(perms ...authz.Permission) Requirement {
	return Requirement{Permissions: perms}
}

// Operation is a business operation scoped to an organization.
type Operation[T any] func(ctx context.Context, ac *AuthContext) (T, error)

// PlatformOperation is a business operation for super admins.
type PlatformOperation[T any] func(ctx context.Context, uc UserContext) (T, error)

// WithAuth resolves the caller's organization context, checks req, and runs
// op only when every check passes.
func WithAuth[T any](ctx context.Context, scope *Scope, req Requirement, op Operation[T]) Result[T] {
	g := scope.gate
	ctx, span := g.tracer.Start(ctx, "access.WithAuth",
		trace.WithAttributes(attribute.StringSlice("access.required", permStrings(req.Permissions))))
	defer span.End()

	d := Decision{Gate: GateAuth, Required: req.Permissions}

	res, err := scope.resolve(ctx)
	if err != nil {
		return deny[T](ctx, g, span, d, KindUnavailable, "authorization could not be decided", err)
	}
	if res.principal == nil {
		return deny[T](ctx, g, span, d, KindUnauthorized, "authentication required", nil)
	}
	d.UserID = res.principal.UserID
	if res.auth == nil {
		return deny[T](ctx, g, span, d, KindNoOrganization, "no organization membership", nil)
	}
	d.OrganizationID = res.auth.OrganizationID()
	d.Role = res.auth.Role().String()

	if len(req.Permissions) > 0 && !authz.HasAllPermissions(res.auth.permissions, req.Permissions) {
		return deny[T](ctx, g, span, d, KindForbidden, "missing permission "+missing(res.auth, req.Permissions), nil)
	}
	if err := ctx.Err(); err != nil {
		return deny[T](ctx, g, span, d, KindUnavailable, "authorization could not be decided", err)
	}

	grant(ctx, g, span, d)
	return invoke(ctx, span, func(ctx context.Context) (T, error) {
		return op(ctx, res.auth)
	})
}

// WithSuperAdmin runs op only for callers whose user carries the super-admin
// flag. Organization membership plays no part.
func WithSuperAdmin[T any](ctx context.Context, scope *Scope, op PlatformOperation[T]) Result[T] {
	g := scope.gate
	ctx, span := g.tracer.Start(ctx, "access.WithSuperAdmin")
	defer span.End()

	d := Decision{Gate: GateSuperAdmin}

	p, err := scope.Principal(ctx)
	if err != nil {
		return deny[T](ctx, g, span, d, KindUnavailable, "authorization could not be decided", err)
	}
	if p == nil {
		return deny[T](ctx, g, span, d, KindUnauthorized, "authentication required", nil)
	}
	d.UserID = p.UserID
	if !p.IsSuperAdmin {
		return deny[T](ctx, g, span, d, KindForbidden, "super admin required", nil)
	}
	if err := ctx.Err(); err != nil {
		return deny[T](ctx, g, span, d, KindUnavailable, "authorization could not be decided", err)
	}

	grant(ctx, g, span, d)
	uc := UserContext{UserID: p.UserID, IsSuperAdmin: true}
	return invoke(ctx, span, func(ctx context.Context) (T, error) {
		return op(ctx, uc)
	})
}

// WithSession runs op for any signed-in caller. It is for operations on the
// caller's own account, which need neither an organization nor a permission.
func WithSession[T any](ctx context.Context, scope *Scope, op PlatformOperation[T]) Result[T] {
	g := scope.gate
	ctx, span := g.tracer.Start(ctx, "access.WithSession")
	defer span.End()

	d := Decision{Gate: GateSession}

	p, err := scope.Principal(ctx)
	if err != nil {
		return deny[T](ctx, g, span, d, KindUnavailable, "authorization could not be decided", err)
	}
	if p == nil {
		return deny[T](ctx, g, span, d, KindUnauthorized, "authentication required", nil)
	}
	d.UserID = p.UserID
	if err := ctx.Err(); err != nil {
		return deny[T](ctx, g, span, d, KindUnavailable, "authorization could not be decided", err)
	}

	grant(ctx, g, span, d)
	uc := UserContext{UserID: p.UserID, IsSuperAdmin: p.IsSuperAdmin}
	return invoke(ctx, span, func(ctx context.Context) (T, error) {
		return op(ctx, uc)
	})
}

// invoke runs fn and converts both returned errors and panics into failures.
func invoke[T any](ctx context.Context, span trace.Span, fn func(context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			slog.ErrorContext(ctx, "gated operation panicked",
				logger.Component("access"),
				logger.ErrorType("panic"),
				logger.String("panic", msg),
				logger.String("stack", string(debug.Stack())),
			)
			span.SetStatus(codes.Error, msg)
			res = Fail[T](KindOperationFailure, msg)
		}
	}()

	v, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return failWith[T](KindOperationFailure, err.Error(), err)
	}
	return Success(v)
}

func grant(ctx context.Context, g *Gate, span trace.Span, d Decision) {
	d.Outcome = OutcomeGranted
	span.SetAttributes(attribute.String("access.decision", d.Outcome))
	record(ctx, g, d)
}

func deny[T any](ctx context.Context, g *Gate, span trace.Span, d Decision, kind Kind, msg string, cause error) Result[T] {
	d.Outcome = string(kind)
	span.SetAttributes(attribute.String("access.decision", d.Outcome))

	attrs := []any{
		logger.Component("access"),
		logger.Gate(d.Gate),
		logger.Decision(d.Outcome),
		logger.UserID(d.UserID),
		logger.OrganizationID(d.OrganizationID),
	}
	switch kind {
	case KindUnavailable:
		span.RecordError(cause)
		span.SetStatus(codes.Error, msg)
		slog.ErrorContext(ctx, "access decision not reached", append(attrs, logger.Error(cause))...)
	case KindForbidden:
		slog.WarnContext(ctx, "access denied", append(attrs,
			logger.Role(d.Role),
			logger.Permissions(permStrings(d.Required)),
		)...)
	default:
		slog.DebugContext(ctx, "access denied", attrs...)
	}

	record(ctx, g, d)
	return failWith[T](kind, msg, cause)
}

func record(ctx context.Context, g *Gate, d Decision) {
	if g.decisions != nil {
		g.decisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("gate", d.Gate),
			attribute.String("outcome", d.Outcome),
		))
	}
	if g.publisher != nil {
		publish(ctx, g.publisher, d)
	}
}

func missing(ac *AuthContext, required []authz.Permission) string {
	var out []string
	for _, p := range required {
		if !authz.HasPermission(ac.permissions, p) {
			out = append(out, p.String())
		}
	}
	return strings.Join(out, ", ")
}

func permStrings(perms []authz.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = p.String()
	}
	return out
}
