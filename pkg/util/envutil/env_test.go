// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package envutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvOrDefault(t *testing.T) {
	const name = "COLQ_ENVUTIL_TEST"

	t.Setenv(name, "")
	require.Equal(t, 7, EnvOrDefaultInt(name, 7))
	require.True(t, EnvOrDefaultBool(name, true))
	require.Equal(t, 0.5, EnvOrDefaultFloat64(name, 0.5))

	t.Setenv(name, "12")
	require.Equal(t, 12, EnvOrDefaultInt(name, 7))
	require.Equal(t, 12.0, EnvOrDefaultFloat64(name, 0.5))
	require.Panics(t, func() { EnvOrDefaultBool(name, false) })

	t.Setenv(name, "true")
	require.True(t, EnvOrDefaultBool(name, false))
	require.Panics(t, func() { EnvOrDefaultInt(name, 0) })

	require.Panics(t, func() { EnvOrDefaultInt("NOT_PREFIXED", 0) })
}
