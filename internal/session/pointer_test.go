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

package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// TestPurpose: Validates that the active-organization pointer round-trips for its own user only.
// Scope: Unit Test
// Security: A pointer cannot be replayed by another user or forged (CWE-565)
// Expected: Same user reads the org; other user, tampered token and foreign key read "".
// Test Case ID: PTR-01
func TestPointerSigner_SignParse(t *testing.T) {
	p, err := NewPointerSigner(testKey, time.Hour)
	require.NoError(t, err)

	token, err := p.Sign("u1", "org-1")
	require.NoError(t, err)

	assert.Equal(t, "org-1", p.Parse(token, "u1"))
	assert.Equal(t, "", p.Parse(token, "u2"))
	assert.Equal(t, "", p.Parse(token+"x", "u1"))
	assert.Equal(t, "", p.Parse("", "u1"))
	assert.Equal(t, "", p.Parse("garbage", "u1"))

	other, err := NewPointerSigner([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "", other.Parse(token, "u1"))
}

// TestPurpose: Validates pointer expiry and algorithm pinning.
// Scope: Unit Test
// Security: Algorithm confusion (CWE-347)
// Expected: Expired pointer and an unsigned "none" token are rejected.
// Test Case ID: PTR-02
func TestPointerSigner_RejectsExpiredAndNone(t *testing.T) {
	p, err := NewPointerSigner(testKey, -time.Minute)
	require.NoError(t, err)
	token, err := p.Sign("u1", "org-1")
	require.NoError(t, err)
	assert.Equal(t, "", p.Parse(token, "u1"))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"org": "org-1", "sub": "u1", "iss": pointerIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, "", p.Parse(unsigned, "u1"))
}

// TestPurpose: Validates the minimum signing key length.
// Scope: Unit Test
// Expected: ErrWeakSigningKey for keys under 32 bytes.
// Test Case ID: PTR-03
func TestNewPointerSigner_WeakKey(t *testing.T) {
	_, err := NewPointerSigner([]byte("short"), time.Hour)
	assert.ErrorIs(t, err, ErrWeakSigningKey)
}
