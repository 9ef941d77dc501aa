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

func TestF16RoundTripExactSmallIntegers(t *testing.T) {
	c := f16Codec{}
	for _, v := range []float64{0, 1, 2, 100, 2047, -5, -100} {
		got := c.decode(c.encode(v))
		assert.Equal(t, v, got, "value %v", v)
	}
}

func TestF16NaNDistinguishable(t *testing.T) {
	c := f16Codec{}
	code := c.encode(math.NaN())
	assert.True(t, c.isNaN(code))
	assert.True(t, math.IsNaN(c.decode(code)))

	code = c.encode(3.5)
	assert.False(t, c.isNaN(code))
}

func TestF16RoundTripRelativePrecision(t *testing.T) {
	c := f16Codec{}
	for _, v := range []float64{1e4, 1e-3, 65000, 0.001} {
		got := c.decode(c.encode(v))
		rel := math.Abs(got-v) / math.Abs(v)
		assert.Less(t, rel, 0.01, "value %v decoded as %v", v, got)
	}
}

func TestAURoundTripBelowBase(t *testing.T) {
	for _, v := range []float64{0, 1, 100, 4095} {
		got := auCodec{}.decode(auCodec{}.encode(v))
		assert.Equal(t, v, got)
	}
}

func TestAURoundTripAboveBaseIsApproximate(t *testing.T) {
	c := auCodec{}
	for _, v := range []float64{5000, 50000, 1_000_000, 10_000_000} {
		got := c.decode(c.encode(v))
		rel := math.Abs(got-v) / v
		require.Less(t, rel, 1.0/(1<<(auBase-1)), "value %v decoded as %v", v, got)
	}
}

func TestAUNaNDistinguishable(t *testing.T) {
	c := auCodec{}
	code := c.encode(math.NaN())
	assert.True(t, c.isNaN(code))
	assert.True(t, math.IsNaN(c.decode(code)))
	assert.False(t, c.isNaN(c.encode(42)))
}

func TestAUSaturatesAtMax(t *testing.T) {
	c := auCodec{}
	code := c.encode(float64(auMax) * 10)
	assert.False(t, c.isNaN(code))
	assert.Equal(t, auNaN-1, code)
}

func TestStoreTypeString(t *testing.T) {
	assert.Equal(t, "AU", StoreAU.String())
	assert.Equal(t, "F16", StoreF16.String())
	assert.Equal(t, "unknown", storeNone.String())
}
