package access

import (
	"context"
	"testing"

	"github.com/shopfloor/shopfloor/internal/authz"
)

// BenchmarkWithAuth_FreshScope measures one request's first gated call,
// including both lookups.
func BenchmarkWithAuth_FreshScope(b *testing.B) {
	g := NewGate(&fakeSessions{principal: user("u1")},
		&fakeMemberships{results: []*Membership{membership("org-1", authz.Builtin(authz.BuiltinOwner), authz.Catalog()...)}})
	req := Require(readVehicles, updateVehicles)
	op := func(ctx context.Context, ac *AuthContext) (struct{}, error) { return struct{}{}, nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if res := WithAuth(context.Background(), g.NewScope("cred", ""), req, op); !res.OK() {
			b.Fatal(res.Failure())
		}
	}
}

// BenchmarkWithAuth_CachedScope measures repeated gated calls within one request.
func BenchmarkWithAuth_CachedScope(b *testing.B) {
	g := NewGate(&fakeSessions{principal: user("u1")},
		&fakeMemberships{results: []*Membership{membership("org-1", authz.Builtin(authz.BuiltinOwner), authz.Catalog()...)}})
	scope := g.NewScope("cred", "")
	req := Require(readVehicles)
	op := func(ctx context.Context, ac *AuthContext) (struct{}, error) { return struct{}{}, nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if res := WithAuth(context.Background(), scope, req, op); !res.OK() {
			b.Fatal(res.Failure())
		}
	}
}
