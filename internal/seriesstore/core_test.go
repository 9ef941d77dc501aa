// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seriesstore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreWriteAndRangeRoundTrip(t *testing.T) {
	core, err := Init(t.TempDir())
	require.NoError(t, err)
	defer core.Shutdown()

	base := int64(1_700_000_000) - int64(1_700_000_000)%5
	for i := int64(0); i < 5; i++ {
		require.NoError(t, core.Write("test_metric", StoreAU, base+i*5, float64(i)))
	}

	out, err := core.Range("test_metric", base, base+25, base+1000, 5)
	require.NoError(t, err)
	require.Len(t, out, 5)
	for i, v := range out {
		assert.InDelta(t, float64(i), v, 1.0)
	}
}

func TestCoreRangeUnknownSeriesReturnsAllNaN(t *testing.T) {
	core, err := Init(t.TempDir())
	require.NoError(t, err)
	defer core.Shutdown()

	// start=0 is planned as 10 (roundUp treats 0 as 1), so the step-10
	// range is [10, 100): nine points.
	out, err := core.Range("does_not_exist", 0, 100, 1000, 10)
	require.NoError(t, err)
	require.Len(t, out, 9)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestCoreAggregateUnknownSeriesReturnsAllZero(t *testing.T) {
	core, err := Init(t.TempDir())
	require.NoError(t, err)
	defer core.Shutdown()

	_, boundaries, out, err := core.Aggregate("does_not_exist", AggrHour, 0, 3600)
	require.NoError(t, err)
	require.Len(t, out, len(boundaries)-1)
	for _, v := range out {
		assert.Equal(t, 0.0, v)
	}
}
