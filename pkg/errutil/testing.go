// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertErrorDomain asserts that err is an oops error raised in domain, the
// package label every error constructor sets with oops.In.
func AssertErrorDomain(t *testing.T, err error, domain string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, domain, oopsErr.Domain())
}

// AssertCoded asserts that err carries code, raised in domain, with every
// key/value pair of context. It folds the three checks most error tests
// make into one call.
func AssertCoded(t *testing.T, err error, domain, code string, context map[string]any) {
	t.Helper()
	require.Error(t, err)
	AssertErrorCode(t, err, code)
	AssertErrorDomain(t, err, domain)
	for key, value := range context {
		AssertErrorContext(t, err, key, value)
	}
}
