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

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/audit"
	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/identity"
	"github.com/shopfloor/shopfloor/internal/organization"
	"github.com/shopfloor/shopfloor/internal/organization/orgtest"
	"github.com/shopfloor/shopfloor/internal/quote"
	"github.com/shopfloor/shopfloor/internal/session"
	storeredis "github.com/shopfloor/shopfloor/internal/store/redis"
	"github.com/shopfloor/shopfloor/internal/team"
	"github.com/shopfloor/shopfloor/internal/vehicle"
)

// =============================================================================
// HTTP API TESTS
// Category: Transport
// Type: Integration Test (IT) over in-memory stores
// =============================================================================

const testPassword = "correct horse battery"

type memUsers struct {
	mu    sync.Mutex
	users map[string]*identity.User
	creds map[string]*identity.Credentials
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*identity.User{}, creds: map[string]*identity.Credentials{}}
}

func (m *memUsers) Create(ctx context.Context, u *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return identity.ErrUserAlreadyExists
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) AddCredentials(ctx context.Context, c *identity.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[c.UserID] = c
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (m *memUsers) UpdateLockout(ctx context.Context, userID string, failed int, lockedUntil *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.FailedLoginAttempts = failed
		u.LockedUntil = lockedUntil
	}
	return nil
}

func (m *memUsers) GetCredentials(ctx context.Context, userID string) (*identity.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[userID]
	if !ok {
		return nil, identity.ErrInvalidCredentials
	}
	return c, nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[userID] = &identity.Credentials{UserID: userID, PasswordHash: hash, UpdatedAt: time.Now()}
	return nil
}

func (m *memUsers) SetSuperAdmin(ctx context.Context, userID string, v bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.IsSuperAdmin = v
	}
	return nil
}

func (m *memUsers) HasSuperAdmin(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.IsSuperAdmin {
			return true, nil
		}
	}
	return false, nil
}

type memShop struct {
	mu       sync.Mutex
	vehicles map[string]*vehicle.Vehicle
	quotes   map[string]*quote.Quote
}

type memVehicles struct{ *memShop }
type memQuotes struct{ *memShop }

func (s memVehicles) Create(ctx context.Context, v *vehicle.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v
	return nil
}

func (s memVehicles) Get(ctx context.Context, orgID, id string) (*vehicle.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok || v.OrganizationID != orgID {
		return nil, vehicle.ErrVehicleNotFound
	}
	cp := *v
	return &cp, nil
}

func (s memVehicles) List(ctx context.Context, orgID string) ([]*vehicle.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*vehicle.Vehicle{}
	for _, v := range s.vehicles {
		if v.OrganizationID == orgID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memVehicles) Update(ctx context.Context, v *vehicle.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.vehicles[v.ID]; !ok || cur.OrganizationID != v.OrganizationID {
		return vehicle.ErrVehicleNotFound
	}
	s.vehicles[v.ID] = v
	return nil
}

func (s memVehicles) Delete(ctx context.Context, orgID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.vehicles[id]; !ok || cur.OrganizationID != orgID {
		return vehicle.ErrVehicleNotFound
	}
	delete(s.vehicles, id)
	return nil
}

func (s memQuotes) Create(ctx context.Context, q *quote.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.ID] = q
	return nil
}

func (s memQuotes) Get(ctx context.Context, orgID, id string) (*quote.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok || q.OrganizationID != orgID {
		return nil, quote.ErrQuoteNotFound
	}
	cp := *q
	return &cp, nil
}

func (s memQuotes) List(ctx context.Context, orgID string) ([]*quote.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*quote.Quote{}
	for _, q := range s.quotes {
		if q.OrganizationID == orgID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s memQuotes) SetShareToken(ctx context.Context, orgID, id, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok || q.OrganizationID != orgID {
		return quote.ErrQuoteNotFound
	}
	q.ShareToken = token
	q.Status = quote.StatusShared
	q.UpdatedAt = at
	return nil
}

func (s memQuotes) GetByShareToken(ctx context.Context, token string) (*quote.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quotes {
		if q.ShareToken != "" && q.ShareToken == token {
			cp := *q
			return &cp, nil
		}
	}
	return nil, quote.ErrQuoteNotFound
}

type testServer struct {
	t        *testing.T
	router   http.Handler
	orgs     *orgtest.Store
	users    *memUsers
	identity *identity.Service
	sessions session.Repository
	redis    *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client, err := storeredis.NewClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	auditLogger := audit.NewSlogLogger()
	orgs := orgtest.New()
	users := newMemUsers()
	shop := &memShop{vehicles: map[string]*vehicle.Vehicle{}, quotes: map[string]*quote.Quote{}}

	identitySvc := identity.NewService(users, identity.NewPasswordHasher(8*1024, 1, 1, 16, 32), auditLogger, 5, time.Minute)
	sessionRepo := storeredis.NewSessionRepository(client)
	sessionSvc := session.NewService(sessionRepo, identitySvc, time.Hour, time.Hour)
	pointers, err := session.NewPointerSigner([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)

	resolver := organization.NewMembershipResolver(orgs, authz.NewRoleResolver(orgs), pointers)
	gate := access.NewGate(sessionSvc, resolver)

	vehicleSvc := vehicle.NewService(memVehicles{shop})
	h := NewHandler(
		gate,
		identitySvc,
		sessionSvc,
		organization.NewService(orgs, orgs, identitySvc, pointers, auditLogger),
		team.NewService(orgs, orgs.Roles(), identitySvc, auditLogger),
		vehicleSvc,
		quote.NewService(memQuotes{shop}, memVehicles{shop}, auditLogger),
		auditLogger,
		nil,
		SessionConfig{CookieName: "sid", CookiePath: "/", CookieHTTPOnly: true, CookieSameSite: http.SameSiteLaxMode, Lifetime: time.Hour},
		ActiveOrgConfig{CookieName: "org", Lifetime: time.Hour},
	)

	rl := NewRateLimiter(1000, 1000)
	t.Cleanup(rl.Stop)
	ui := fstest.MapFS{"index.html": {Data: []byte("<html>shop</html>")}}

	return &testServer{
		t:        t,
		router:   NewRouter(h, rl, ui),
		orgs:     orgs,
		users:    users,
		identity: identitySvc,
		sessions: sessionRepo,
		redis:    mr,
	}
}

func (s *testServer) addUser(email string) string {
	s.t.Helper()
	u, err := s.identity.ProvisionUser(context.Background(), email, "")
	require.NoError(s.t, err)
	require.NoError(s.t, s.identity.AddPassword(context.Background(), u.ID, testPassword))
	return u.ID
}

// client carries cookies between requests like a browser.
type client struct {
	s       *testServer
	cookies map[string]*http.Cookie
}

func (s *testServer) client() *client {
	return &client{s: s, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodGet {
		req.Header.Set("X-CSRF-Token", "1")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.s.router.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) login(email string) {
	c.s.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: email, Password: testPassword})
	require.Equal(c.s.t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(c.s.t, c.cookies, "sid")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

// TestPurpose: Validates the mapping of gate failures to HTTP statuses.
// Scope: Integration Test
// Security: Anonymous callers, users without an organization and under-privileged members are told apart
// Expected: 401 without a session, 409 no_organization without a membership, 403 without the permission.
// Test Case ID: HTTP-01
func TestAPI_FailureStatuses(t *testing.T) {
	s := newTestServer(t)
	orgID := s.orgs.AddOrganization("Main Street Garage")
	memberID := s.addUser("member@example.com")
	s.addUser("drifter@example.com")
	s.orgs.AddMember(orgID, memberID, authz.Builtin(authz.BuiltinMember))

	anon := s.client()
	rec := anon.do(http.MethodGet, "/api/v1/vehicles", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	drifter := s.client()
	drifter.login("drifter@example.com")
	rec = drifter.do(http.MethodGet, "/api/v1/vehicles", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrorNoOrganization, errorOf(t, rec))

	member := s.client()
	member.login("member@example.com")
	rec = member.do(http.MethodPost, "/api/v1/vehicles", vehicle.Input{Make: "Ford", Model: "Transit"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Change password needs a session, not an organization.
	rec = drifter.do(http.MethodPost, "/api/v1/auth/change-password", ChangePasswordRequest{
		OldPassword: testPassword, NewPassword: "another long password",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestPurpose: Validates login, the current user view and logout.
// Scope: Integration Test
// Expected: /auth/me reports the resolved organization and role; after logout the session is gone.
// Test Case ID: HTTP-02
func TestAPI_LoginMeLogout(t *testing.T) {
	s := newTestServer(t)
	orgID := s.orgs.AddOrganization("Main Street Garage")
	ownerID := s.addUser("owner@example.com")
	s.orgs.AddMember(orgID, ownerID, authz.Builtin(authz.BuiltinOwner))

	c := s.client()
	rec := c.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "owner@example.com", Password: "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c.login("owner@example.com")
	rec = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode[CurrentUser](t, rec)
	assert.Equal(t, ownerID, me.UserID)
	assert.Equal(t, orgID, me.OrganizationID)
	assert.True(t, me.Role.Is(authz.BuiltinOwner))
	assert.Len(t, me.Permissions, len(authz.Catalog()))

	rec = c.do(http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, c.cookies, "sid")

	rec = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestPurpose: Validates that state-changing requests require the CSRF header.
// Scope: Integration Test
// Security: Cross-site form posts cannot set custom headers
// Expected: POST without X-CSRF-Token is rejected with 403 before reaching the handler.
// Test Case ID: HTTP-03
func TestAPI_CSRFHeaderRequired(t *testing.T) {
	s := newTestServer(t)
	s.addUser("owner@example.com")

	body, _ := json.Marshal(LoginRequest{Email: "owner@example.com", Password: testPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

// TestPurpose: Validates switching the active organization through the pointer cookie.
// Scope: Integration Test
// Security: Switching requires membership; a pointer cannot be reused by another user
// Expected: After switching, vehicle listings come from the new organization; switching to a foreign org is 403.
// Test Case ID: HTTP-04
func TestAPI_SwitchOrganization(t *testing.T) {
	s := newTestServer(t)
	orgA := s.orgs.AddOrganization("A")
	orgB := s.orgs.AddOrganization("B")
	orgC := s.orgs.AddOrganization("C")
	userID := s.addUser("owner@example.com")
	otherID := s.addUser("other@example.com")
	s.orgs.AddMember(orgA, userID, authz.Builtin(authz.BuiltinOwner))
	s.orgs.AddMember(orgB, userID, authz.Builtin(authz.BuiltinOwner))
	s.orgs.AddMember(orgA, otherID, authz.Builtin(authz.BuiltinOwner))
	s.orgs.AddMember(orgB, otherID, authz.Builtin(authz.BuiltinOwner))

	c := s.client()
	c.login("owner@example.com")

	rec := c.do(http.MethodPost, "/api/v1/vehicles", vehicle.Input{Make: "Ford", Model: "Transit"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, orgA, decode[vehicle.Vehicle](t, rec).OrganizationID)

	rec = c.do(http.MethodPost, "/api/v1/organizations/switch", SwitchOrganizationRequest{OrganizationID: orgB})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, c.cookies, "org")

	rec = c.do(http.MethodGet, "/api/v1/vehicles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]vehicle.Vehicle](t, rec))

	rec = c.do(http.MethodPost, "/api/v1/organizations/switch", SwitchOrganizationRequest{OrganizationID: orgC})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A pointer lifted into another user's browser is ignored.
	other := s.client()
	other.login("other@example.com")
	other.cookies["org"] = c.cookies["org"]
	rec = other.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orgA, decode[CurrentUser](t, rec).OrganizationID)
}

// TestPurpose: Validates quote sharing and the public share endpoint.
// Scope: Integration Test
// Security: The public view omits organization-internal fields and needs no session
// Expected: A shared quote is readable anonymously by token; sharing twice keeps the token; unknown tokens are 404.
// Test Case ID: HTTP-05
func TestAPI_SharedQuote(t *testing.T) {
	s := newTestServer(t)
	orgID := s.orgs.AddOrganization("Main Street Garage")
	ownerID := s.addUser("owner@example.com")
	s.orgs.AddMember(orgID, ownerID, authz.Builtin(authz.BuiltinOwner))

	c := s.client()
	c.login("owner@example.com")

	rec := c.do(http.MethodPost, "/api/v1/vehicles", vehicle.Input{Make: "Ford", Model: "Transit"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v := decode[vehicle.Vehicle](t, rec)

	rec = c.do(http.MethodPost, "/api/v1/quotes", quote.Input{VehicleID: v.ID, Title: "Brake job", TotalCents: 45000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	q := decode[quote.Quote](t, rec)

	rec = c.do(http.MethodPost, "/api/v1/quotes/"+q.ID+"/share", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	shared := decode[quote.Quote](t, rec)
	require.NotEmpty(t, shared.ShareToken)

	rec = c.do(http.MethodPost, "/api/v1/quotes/"+q.ID+"/share", nil)
	assert.Equal(t, shared.ShareToken, decode[quote.Quote](t, rec).ShareToken)

	anon := s.client()
	rec = anon.do(http.MethodGet, "/api/v1/public/quotes/"+shared.ShareToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	public := decode[map[string]any](t, rec)
	assert.Equal(t, "Brake job", public["title"])
	assert.NotContains(t, public, "organization_id")
	assert.NotContains(t, public, "vehicle_id")

	rec = anon.do(http.MethodGet, "/api/v1/public/quotes/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodPost, "/api/v1/quotes", quote.Input{VehicleID: "missing", Title: "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestPurpose: Validates member and custom role management over HTTP.
// Scope: Integration Test
// Security: The last owner cannot be demoted
// Expected: Roles are created and assigned; demoting the only owner is 409.
// Test Case ID: HTTP-06
func TestAPI_TeamManagement(t *testing.T) {
	s := newTestServer(t)
	orgID := s.orgs.AddOrganization("Main Street Garage")
	ownerID := s.addUser("owner@example.com")
	s.addUser("tech@example.com")
	s.orgs.AddMember(orgID, ownerID, authz.Builtin(authz.BuiltinOwner))

	c := s.client()
	c.login("owner@example.com")

	rec := c.do(http.MethodPost, "/api/v1/roles", team.RoleInput{Name: "Technician", Permissions: []string{"vehicles:read"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	role := decode[authz.CustomRole](t, rec)

	rec = c.do(http.MethodPost, "/api/v1/members", map[string]any{
		"email": "tech@example.com",
		"role":  map[string]string{"kind": "custom", "role_id": role.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tech := s.client()
	tech.login("tech@example.com")
	assert.Equal(t, http.StatusOK, tech.do(http.MethodGet, "/api/v1/vehicles", nil).Code)
	assert.Equal(t, http.StatusForbidden, tech.do(http.MethodGet, "/api/v1/quotes", nil).Code)

	rec = c.do(http.MethodPut, "/api/v1/members/"+ownerID, map[string]any{
		"role": map[string]string{"kind": "builtin", "name": "admin"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = c.do(http.MethodGet, "/api/v1/members", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = c.do(http.MethodDelete, "/api/v1/roles/"+role.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusForbidden, tech.do(http.MethodGet, "/api/v1/vehicles", nil).Code)
}

// TestPurpose: Validates that platform routes are limited to super admins.
// Scope: Integration Test
// Security: Organization owners cannot list or create organizations platform-wide
// Expected: Owner gets 403; super admin creates an organization with 201.
// Test Case ID: HTTP-07
func TestAPI_PlatformOrganizations(t *testing.T) {
	s := newTestServer(t)
	orgID := s.orgs.AddOrganization("Main Street Garage")
	ownerID := s.addUser("owner@example.com")
	adminID := s.addUser("ops@example.com")
	s.orgs.AddMember(orgID, ownerID, authz.Builtin(authz.BuiltinOwner))
	require.NoError(t, s.users.SetSuperAdmin(context.Background(), adminID, true))

	owner := s.client()
	owner.login("owner@example.com")
	assert.Equal(t, http.StatusForbidden, owner.do(http.MethodGet, "/api/v1/platform/organizations", nil).Code)

	admin := s.client()
	admin.login("ops@example.com")
	rec := admin.do(http.MethodPost, "/api/v1/platform/organizations", CreateOrganizationRequest{Name: "Second Shop", OwnerUserID: ownerID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = admin.do(http.MethodGet, "/api/v1/platform/organizations?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]organization.Organization](t, rec), 2)

	rec = owner.do(http.MethodGet, "/api/v1/organizations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)
}

// TestPurpose: Validates that a session store outage surfaces as unavailable, not as logged out.
// Scope: Integration Test
// Expected: With the session store down, an authenticated request gets 503.
// Test Case ID: HTTP-08
func TestAPI_SessionStoreDown(t *testing.T) {
	s := newTestServer(t)
	orgID := s.orgs.AddOrganization("Main Street Garage")
	ownerID := s.addUser("owner@example.com")
	s.orgs.AddMember(orgID, ownerID, authz.Builtin(authz.BuiltinOwner))

	c := s.client()
	c.login("owner@example.com")
	s.redis.Close()

	rec := c.do(http.MethodGet, "/api/v1/vehicles", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// TestPurpose: Validates health reporting and the SPA fallback.
// Scope: Unit Test
// Expected: /health is 200 without a checker; unknown UI paths serve index.html.
// Test Case ID: HTTP-09
func TestAPI_HealthAndSPA(t *testing.T) {
	s := newTestServer(t)
	c := s.client()

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil).Code)

	rec := c.do(http.MethodGet, "/quotes/123", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shop")
}

// TestPurpose: Validates that a password change revokes the user's sessions.
// Scope: Integration Test
// Security: Sessions opened with the old password stop working (CWE-613)
// Expected: Wrong old password 401, weak password 400; on success the caller keeps access
// through a new session and the user's other session is signed out.
// Test Case ID: HTTP-10
func TestAPI_ChangePasswordRevokesSessions(t *testing.T) {
	s := newTestServer(t)
	orgID := s.orgs.AddOrganization("Main Street Garage")
	ownerID := s.addUser("owner@example.com")
	s.orgs.AddMember(orgID, ownerID, authz.Builtin(authz.BuiltinOwner))

	laptop := s.client()
	laptop.login("owner@example.com")
	phone := s.client()
	phone.login("owner@example.com")

	rec := laptop.do(http.MethodPost, "/api/v1/auth/change-password", ChangePasswordRequest{
		OldPassword: "not my password", NewPassword: "another long password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = laptop.do(http.MethodPost, "/api/v1/auth/change-password", ChangePasswordRequest{
		OldPassword: testPassword, NewPassword: "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	oldSID := laptop.cookies["sid"].Value
	rec = laptop.do(http.MethodPost, "/api/v1/auth/change-password", ChangePasswordRequest{
		OldPassword: testPassword, NewPassword: "another long password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, oldSID, laptop.cookies["sid"].Value)

	rec = laptop.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = phone.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	anon := s.client()
	rec = anon.do(http.MethodPost, "/api/v1/auth/change-password", ChangePasswordRequest{
		OldPassword: testPassword, NewPassword: "another long password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestPurpose: Validates that request activity is recorded after the handler runs.
// Scope: Integration Test
// Expected: A session last seen five minutes ago has a fresh LastSeenAt after one request.
// Test Case ID: HTTP-11
func TestAPI_SessionActivityRecorded(t *testing.T) {
	s := newTestServer(t)
	orgID := s.orgs.AddOrganization("Main Street Garage")
	ownerID := s.addUser("owner@example.com")
	s.orgs.AddMember(orgID, ownerID, authz.Builtin(authz.BuiltinOwner))

	c := s.client()
	c.login("owner@example.com")
	ctx := context.Background()
	sid := c.cookies["sid"].Value

	sess, err := s.sessions.Get(ctx, sid)
	require.NoError(t, err)
	sess.LastSeenAt = time.Now().Add(-5 * time.Minute)
	require.NoError(t, s.sessions.Update(ctx, sess))

	rec := c.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err = s.sessions.Get(ctx, sid)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), sess.LastSeenAt, time.Minute)
}
