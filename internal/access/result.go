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

// Kind classifies a failed gated call.
type Kind string

const (
	// KindUnauthorized means no session could be resolved.
	KindUnauthorized Kind = "unauthorized"

	// KindNoOrganization means a session exists but no membership does.
	KindNoOrganization Kind = "no_organization"

	// KindForbidden means required permissions or the super-admin flag are
	// missing.
	KindForbidden Kind = "forbidden"

	// KindOperationFailure means the decision passed and the operation failed.
	KindOperationFailure Kind = "operation_failure"

	// KindUnavailable means no decision was reached: the request was
	// cancelled or storage failed during resolution.
	KindUnavailable Kind = "unavailable"
)

// Failure describes why a gated call did not succeed. It implements error.
type Failure struct {
	Kind    Kind
	Message string

	// Err is the operation's own error for KindOperationFailure, or the
	// storage fault behind KindUnavailable.
	Err error
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Result is either a value or a Failure, never both.
type Result[T any] struct {
	value   T
	failure *Failure
}

// Success wraps a value.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail builds a failed result.
func Fail[T any](kind Kind, message string) Result[T] {
	return Result[T]{failure: &Failure{Kind: kind, Message: message}}
}

func failWith[T any](kind Kind, message string, err error) Result[T] {
	return Result[T]{failure: &Failure{Kind: kind, Message: message, Err: err}}
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.failure == nil
}

// Value returns the success value, or the zero value on failure.
func (r Result[T]) Value() T {
	return r.value
}

// Failure returns nil on success.
func (r Result[T]) Failure() *Failure {
	return r.failure
}

// Unwrap returns the value and, on failure, the *Failure as an error.
func (r Result[T]) Unwrap() (T, error) {
	if r.failure != nil {
		return r.value, r.failure
	}
	return r.value, nil
}
