// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seriesstore

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unixAt(y int, m time.Month, d, h int) int64 {
	return time.Date(y, m, d, h, 0, 0, 0, dashboardZone).Unix()
}

func TestGenerateBoundariesHour(t *testing.T) {
	start := unixAt(2026, time.March, 1, 10) + 1800 // 10:30
	end := unixAt(2026, time.March, 1, 13)
	bs := generateBoundaries(AggrHour, start, end)
	require.GreaterOrEqual(t, len(bs), 2)
	assert.Equal(t, unixAt(2026, time.March, 1, 10), bs[0])
	assert.GreaterOrEqual(t, bs[len(bs)-1], end)
}

func TestGenerateBoundariesMonthLeapYear(t *testing.T) {
	start := unixAt(2024, time.February, 10, 0)
	end := unixAt(2024, time.April, 1, 0)
	bs := generateBoundaries(AggrMonth, start, end)
	require.Len(t, bs, 3)
	assert.Equal(t, unixAt(2024, time.February, 1, 0), bs[0])
	assert.Equal(t, unixAt(2024, time.March, 1, 0), bs[1])
	assert.Equal(t, unixAt(2024, time.April, 1, 0), bs[2])
}

func TestPlanAggregationCoarsensWhenTooManyRanges(t *testing.T) {
	start := unixAt(2020, time.January, 1, 0)
	end := unixAt(2026, time.January, 1, 0) // 6 years of minutes >> 90
	level, boundaries := PlanAggregation(AggrMinute, start, end)
	assert.NotEqual(t, AggrMinute, level)
	assert.LessOrEqual(t, len(boundaries)-1, maxAggrRanges)
}

func TestPlanAggregationClampsStartWhenYearStillTooMany(t *testing.T) {
	start := unixAt(1900, time.January, 1, 0)
	end := unixAt(2026, time.January, 1, 0) // >90 years
	level, boundaries := PlanAggregation(AggrYear, start, end)
	assert.Equal(t, AggrYear, level)
	assert.LessOrEqual(t, len(boundaries)-1, maxAggrRanges)
}

func TestAggregateEmptySeriesReturnsZero(t *testing.T) {
	sl := newTestSeries(t, []int32{5, 60}, []int32{200, 60}, StoreF16)
	defer sl.file.Close()

	boundaries := []int64{0, 100, 200}
	out := sl.Aggregate(boundaries, nil)
	require.Len(t, out, 2)
	for _, v := range out {
		assert.False(t, math.IsNaN(v))
		assert.Equal(t, 0.0, v)
	}
}

func TestAggregateSumsCoverageSeconds(t *testing.T) {
	sl := newTestSeries(t, []int32{5, 60}, []int32{400, 200}, StoreF16)
	defer sl.file.Close()

	base := int64(1_700_000_000) - int64(1_700_000_000)%5
	for i := int64(0); i < 20; i++ {
		require.NoError(t, sl.Append(base+i*5, 2))
	}

	out := sl.Aggregate([]int64{base, base + 100}, nil)
	require.Len(t, out, 1)
	// 20 buckets * 5s each at value 2 => 200 value-seconds.
	assert.InDelta(t, 200.0, out[0], 20.0)
}
