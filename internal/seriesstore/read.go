// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// read.go implements the point-range read path: planning a sane (start,
// end, step) for a dashboard request, choosing the best-fitting
// resolution level, and gap-aware down/up-sampling.
package seriesstore

import "math"

// GetRangeParam adjusts a requested (start, end) into an aligned range and
// picks a step so that at most `length` points are produced. cur is the
// caller's notion of "now". Returns the adjusted start, end and
// step; if the range collapses to nothing, start==end==0 is returned.
func (sl *SeriesLog) GetRangeParam(start, end, cur int64, length int32) (int64, int64, int64) {
	return rangeParam(sl.levels, start, end, cur, length)
}

// rangeParam is the level-table-driven planning logic behind
// GetRangeParam, usable against any level table -- including the
// default one, for callers that have no open series to consult.
func rangeParam(levels []levelEntry, start, end, cur int64, length int32) (int64, int64, int64) {
	if end > cur {
		end = cur
	}
	if start >= end {
		return 0, 0, 0
	}

	level := 0
	for ; level < len(levels)-1; level++ {
		if cur-start <= int64(levels[level].step)*int64(levels[level].len) {
			break
		}
	}
	floor := int64(levels[level].step)

	if length <= 0 {
		length = 500
	}
	step := roundUp((end-start+int64(length)-1)/int64(length), floor)
	start = roundUp(start, step)
	end2 := roundUp(end, step)
	if end2 < start+step {
		end2 = start + step
	}
	return start, end2, step
}

// Range produces (end-start)/step samples at start, start+step, ...
// start and end must be multiples of step and start < end.
func (sl *SeriesLog) Range(start, end, step int64, out []float64) ([]float64, error) {
	if start >= end || start%step != 0 || end%step != 0 {
		return nil, ErrInvalidRange
	}

	level := sl.selectRangeLevel(start, step)
	result := out[:0]

	lvtime := lvMinTime(int64(sl.levels[level].time), int64(sl.levels[level].len), int64(sl.levels[level].step))
	if lvtime == 0 {
		for t := start; t < end; t += step {
			result = append(result, math.NaN())
		}
		return result, nil
	}

	cur := start
	for cur < lvtime && cur < end {
		result = append(result, math.NaN())
		cur += step
	}

	cur, result = sl.fillFromLevel(level, cur, end, step, lvtime, result)

	if level != 0 {
		lvtime0 := lvMinTime(int64(sl.levels[0].time), int64(sl.levels[0].len), int64(sl.levels[0].step))
		if cur <= int64(sl.levels[0].time) && lvtime0 < end {
			cur, result = sl.fillFromLevel(0, cur, end, step, lvtime0, result)
		}
	}

	for cur < end {
		result = append(result, math.NaN())
		cur += step
	}
	return result, nil
}

// selectRangeLevel picks the resolution level used to answer a range
// query.
func (sl *SeriesLog) selectRangeLevel(start, step int64) int {
	for level := len(sl.levels) - 1; level >= 0; level-- {
		e := &sl.levels[level]
		if e.time > 0 && lvMinTime(int64(e.time), int64(e.len), int64(e.step)) <= start && step%int64(e.step) == 0 {
			return level
		}
	}

	level := 0
	for ; level < len(sl.levels)-1; level++ {
		e := &sl.levels[level]
		if e.time == 0 || lvMinTime(int64(e.time), int64(e.len), int64(e.step)) <= start {
			break
		}
	}
	e := &sl.levels[level]
	if level > 0 && e.time == 0 {
		level--
	} else if e.time == 0 {
		// no data at all; level stays at 0
	} else if int64(e.step) < step {
		hiGCD := gcd(int64(e.step), step)
		for next := level + 1; next < len(sl.levels) && int64(sl.levels[next].step) < step; next++ {
			g := gcd(int64(sl.levels[next].step), step)
			if g >= hiGCD {
				level = next
				hiGCD = g
			}
		}
	}
	return level
}

// fillFromLevel fills output samples from `cur` up to the lesser of `end`
// and the level's live window, implementing the level.step<=step
// (averaging) and level.step>step (nearest-neighbor replication) rules.
// It returns the advanced cursor and extended slice.
func (sl *SeriesLog) fillFromLevel(level int, cur, end, step, lvtime int64, result []float64) (int64, []float64) {
	e := &sl.levels[level]
	if lvtime == 0 || lvtime >= end {
		return cur, result
	}

	lstep := int64(e.step)
	aligned := cur - cur%lstep
	for aligned >= lvtime+lstep && cur-(aligned-lstep) < step {
		aligned -= lstep
	}
	if aligned < lvtime {
		aligned = lvtime
	}
	lvt := aligned
	lvpos := lvTimePos(lvt, int64(e.time), int64(e.pos), int64(e.len), lstep)
	if lvpos < 0 {
		lvpos = 0
	}

	readValue := func(pos int) float64 {
		if level == 0 {
			return float64(sl.value0[pos])
		}
		c := sl.values[level][pos]
		if sl.codec.isNaN(c) {
			return math.NaN()
		}
		return sl.codec.decode(c)
	}

	if lstep <= step {
		for cur <= int64(e.time) && cur < end {
			var sum float64
			cnt := 0
			for lvt <= cur {
				v := readValue(lvpos)
				if !math.IsNaN(v) {
					sum += v
					cnt++
				}
				lvt += lstep
				lvpos++
				if lvpos >= int(e.len) {
					lvpos = 0
				}
			}
			if cnt > 0 {
				result = append(result, sum/float64(cnt))
			} else {
				result = append(result, math.NaN())
			}
			cur += step
		}
		return cur, result
	}

	for lvt <= int64(e.time) && lvt < end {
		v := readValue(lvpos)
		for cur <= lvt && cur < end {
			result = append(result, v)
			cur += step
		}
		lvt += lstep
		lvpos++
		if lvpos >= int(e.len) {
			lvpos = 0
		}
	}
	return cur, result
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
