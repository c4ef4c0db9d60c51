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
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const pointerIssuer = "shopfloor/active-org"

// ErrWeakSigningKey is returned for pointer keys shorter than 32 bytes.
var ErrWeakSigningKey = errors.New("active organization signing key must be at least 32 bytes")

// PointerSigner issues and reads the active-organization pointer: a small
// HS256 token naming the organization a user last switched to. It is bound
// to the user, so a pointer copied into another user's browser is ignored.
//
// A pointer is only a hint. Membership is always re-checked when it is read.
type PointerSigner struct {
	key      []byte
	lifetime time.Duration
}

type pointerClaims struct {
	OrganizationID string `json:"org"`
	jwt.RegisteredClaims
}

// NewPointerSigner creates a signer. lifetime bounds how long a pointer is
// honoured.
func NewPointerSigner(key []byte, lifetime time.Duration) (*PointerSigner, error) {
	if len(key) < 32 {
		return nil, ErrWeakSigningKey
	}
	return &PointerSigner{key: key, lifetime: lifetime}, nil
}

// Sign returns a pointer from userID to organizationID.
func (p *PointerSigner) Sign(userID, organizationID string) (string, error) {
	now := time.Now()
	claims := pointerClaims{
		OrganizationID: organizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    pointerIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.lifetime)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign active organization pointer: %w", err)
	}
	return signed, nil
}

// Parse returns the organization ID in token if it is valid for userID, and
// "" for anything else: empty, tampered, expired or issued to another user.
func (p *PointerSigner) Parse(token, userID string) string {
	if token == "" || userID == "" {
		return ""
	}
	var claims pointerClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return p.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(pointerIssuer),
		jwt.WithSubject(userID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return ""
	}
	return claims.OrganizationID
}
