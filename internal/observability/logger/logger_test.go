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

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates level parsing from configuration strings.
// Scope: Unit Test
// Expected: Known names map to their level, anything else to info.
// Test Case ID: LOG-01
func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

// TestPurpose: Validates that the JSON logger writes structured records to the configured output.
// Scope: Unit Test
// Expected: One JSON object with the message and attributes.
// Test Case ID: LOG-02
func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", ServiceName: "shopfloor-test", Output: &buf})

	l.InfoContext(context.Background(), "hello", UserID("u-1"), OrganizationID("org-1"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "u-1", rec["user_id"])
	assert.Equal(t, "org-1", rec["organization_id"])
}

// TestPurpose: Validates that session credentials are truncated in logs.
// Scope: Unit Test
// Security: Session tokens must not be written to logs in full (CWE-532)
// Expected: Only an 8 character prefix is kept.
// Test Case ID: LOG-03
func TestSessionID_Truncated(t *testing.T) {
	attr := SessionID("abcdefghijklmnopqrstuvwxyz")
	assert.Equal(t, "abcdefgh...", attr.Value.String())
	assert.Equal(t, "short", SessionID("short").Value.String())
}

// TestPurpose: Validates that denied audit events are raised to warn level.
// Scope: Unit Test
// Expected: A denied event is written at WARN, a granted one at INFO.
// Test Case ID: LOG-04
func TestAuditLogger_DeniedIsWarn(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.Log(context.Background(), AuditEvent{EventType: "authorization", Action: "with_auth", Result: "denied"})
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "audit", rec["component"])

	buf.Reset()
	al.Log(context.Background(), AuditEvent{EventType: "authorization", Action: "with_auth", Result: "granted"})
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "INFO", rec["level"])
}
