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

package config

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

// TestPurpose: Validates defaults and overrides read from the environment.
// Scope: Unit Test
// Expected: Unset keys fall back to defaults; malformed values fall back too.
// Test Case ID: CFG-01
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("ACTIVE_ORG_SIGNING_KEY", testSigningKey)
	t.Setenv("SESSION_LIFETIME", "not-a-duration")
	t.Setenv("AUDIT_DECISIONS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SessionStorePostgres, cfg.Session.Store)
	assert.Equal(t, 24*time.Hour, cfg.Session.Lifetime)
	assert.Equal(t, "shopfloor_org", cfg.ActiveOrg.CookieName)
	assert.Equal(t, 720*time.Hour, cfg.ActiveOrg.Lifetime)
	assert.True(t, cfg.Observability.AuditDecisions)
}

// TestPurpose: Validates configuration guards.
// Scope: Unit Test
// Security: The active-organization pointer cannot be signed with a weak key
// Expected: Missing DB password, short signing key and unknown session store are rejected.
// Test Case ID: CFG-02
func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing db password",
			env:  map[string]string{"ACTIVE_ORG_SIGNING_KEY": testSigningKey},
			want: "DB_PASSWORD",
		},
		{
			name: "short signing key",
			env:  map[string]string{"DB_PASSWORD": "secret", "ACTIVE_ORG_SIGNING_KEY": "short"},
			want: "ACTIVE_ORG_SIGNING_KEY",
		},
		{
			name: "unknown session store",
			env: map[string]string{
				"DB_PASSWORD":            "secret",
				"ACTIVE_ORG_SIGNING_KEY": testSigningKey,
				"SESSION_STORE":          "memcached",
			},
			want: "SESSION_STORE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"DB_PASSWORD", "ACTIVE_ORG_SIGNING_KEY", "SESSION_STORE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

// TestPurpose: Validates the redis session store selection.
// Scope: Unit Test
// Expected: SESSION_STORE=redis is accepted with REDIS_URL.
// Test Case ID: CFG-03
func TestLoad_RedisStore(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("ACTIVE_ORG_SIGNING_KEY", testSigningKey)
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
}

// TestPurpose: Validates that every configuration problem is reported together.
// Scope: Unit Test
// Expected: One error names both the missing password and the weak key; SameSite parsing is case-insensitive.
// Test Case ID: CFG-04
func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := &Config{
		Session:   SessionConfig{Store: SessionStorePostgres, Lifetime: time.Hour, CookieSameSite: "strict"},
		ActiveOrg: ActiveOrgConfig{SigningKey: "short", Lifetime: time.Hour},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "ACTIVE_ORG_SIGNING_KEY")
	assert.Equal(t, http.SameSiteStrictMode, cfg.Session.SameSiteMode())
	assert.Equal(t, http.SameSiteLaxMode, SessionConfig{}.SameSiteMode())
}
