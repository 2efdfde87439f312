// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package netutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeLoopbackPort(t *testing.T) {
	port, err := FreeLoopbackPort()
	require.NoError(t, err)
	assert.Greater(t, port, 0)
	assert.Less(t, port, 65536)
}

func TestFreeLoopbackPort_DistinctFromExclude(t *testing.T) {
	first, err := FreeLoopbackPort()
	require.NoError(t, err)

	second, err := FreeLoopbackPort(first)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
