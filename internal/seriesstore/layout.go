// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// layout.go describes the on-disk schema of a series log file and the
// default multi-level round-robin layout new series are created with.
//
// File layout (little-endian, tightly packed):
//
//	header:      { i32 storeType; i32 levelCount }            8 bytes
//	level table: levelEntry[levelCount]                       20 bytes each
//	level 0:     f32[level0.len]
//	level i:     u16[leveli.len]   for i = 1..levelCount-1
package seriesstore

import "fmt"

const (
	headerSize       = 8  // storeType (i32) + levelCount (i32)
	levelEntrySize   = 20 // step, off, len (i32) + time (u32) + pos (i32)
	minLevels        = 2
	maxLevels        = 20
	rollupDelay      = 60        // UPDELAY, seconds
	staleGuardMax    = 60        // cap on "how far in the past" a sample may land
	writeMinStep     = 600       // flush gate: data time must have advanced this far
	writeMinWallTime = 120       // flush gate: wall clock must have advanced this far
	maxLevelLen      = 10 << 20  // 10 Mi entries, enforced on non-terminal levels
	maxLevel0Step    = 86400     // level 0 step may not exceed one day
	maxLevelStep     = 10 * 86400
	plausibleMinTime = 1577808000  // 2020-01-01T00:00:00+08:00
	plausibleMaxTime = 2524579200  // 2050-01-01T00:00:00+08:00
	dayInSeconds     = 86400
)

// defaultSteps and defaultPeriods describe the representative default
// layout: 5s, 60s, 600s, 1800s steps covering 1, 15, 183 and 365 days
// respectively.
var (
	defaultSteps   = [4]int32{5, 60, 600, 1800}
	defaultPeriods = [4]int32{1 * dayInSeconds, 15 * dayInSeconds, 183 * dayInSeconds, 365 * dayInSeconds}
)

// levelEntry is one row of the on-disk level table.
type levelEntry struct {
	step int32  // seconds per bucket
	off  int32  // byte offset of this level's value array within the file
	len  int32  // length in buckets
	time uint32 // bucket time of the last write, 0 if never written
	pos  int32  // index of the next write position, modulo len
}

// defaultLevelTable builds the level table for a brand-new series file using
// the representative defaults above.
func defaultLevelTable() []levelEntry {
	lv := make([]levelEntry, len(defaultSteps))
	off := int32(headerSize + levelEntrySize*len(defaultSteps))
	for i := range lv {
		step := defaultSteps[i]
		n := defaultPeriods[i] / step
		lv[i] = levelEntry{step: step, off: off, len: n}
		if i == 0 {
			off += n * 4
		} else {
			off += n * 2
		}
	}
	return lv
}

// roundUp returns the smallest multiple of mul that is >= val, treating
// val==0 as 1 the way the original roundup() does (so a zero bucket time
// rounds up to one full period rather than staying at zero).
func roundUp(val, mul int64) int64 {
	if val < 1 {
		val = 1
	}
	if mul <= 0 {
		return val
	}
	r := val + mul - 1
	return r - r%mul
}

// validateLevelTable checks the structural invariants a level table must
// satisfy before a loaded file is trusted.
func validateLevelTable(lv []levelEntry) error {
	if len(lv) < minLevels || len(lv) > maxLevels {
		return fmt.Errorf("seriesstore: invalid level count %d", len(lv))
	}
	base := int32(headerSize + levelEntrySize*len(lv))
	for i := range lv {
		e := &lv[i]
		if e.off != base {
			return fmt.Errorf("seriesstore: level %d offset %d != expected %d", i, e.off, base)
		}
		if e.pos < 0 || e.pos > e.len || e.len <= 0 || e.step <= 0 {
			return fmt.Errorf("seriesstore: level %d corrupt (step=%d len=%d pos=%d)", i, e.step, e.len, e.pos)
		}
		if i == 0 && e.step > maxLevel0Step {
			return fmt.Errorf("seriesstore: level 0 step %d exceeds %d", e.step, maxLevel0Step)
		}
		if e.step > maxLevelStep {
			return fmt.Errorf("seriesstore: level %d step %d exceeds %d", i, e.step, maxLevelStep)
		}
		if dayInSeconds%e.step != 0 && e.step%dayInSeconds != 0 {
			return fmt.Errorf("seriesstore: level %d step %d not calendar-aligned", i, e.step)
		}
		if i != len(lv)-1 && int64(e.len) > maxLevelLen {
			return fmt.Errorf("seriesstore: level %d len %d exceeds cap", i, e.len)
		}
		period := int64(e.step) * int64(e.len)
		if period%dayInSeconds != 0 && dayInSeconds%period != 0 {
			return fmt.Errorf("seriesstore: level %d period %d not calendar-aligned", i, period)
		}
		e.time -= e.time % uint32(e.step)
		if e.time != 0 && e.time > 500_000_000 {
			if e.time < plausibleMinTime || e.time > plausibleMaxTime {
				return fmt.Errorf("seriesstore: level %d time %d out of plausible range", i, e.time)
			}
		}
		if e.step%lv[0].step != 0 {
			return fmt.Errorf("seriesstore: level %d step %d not a multiple of level 0 step %d", i, e.step, lv[0].step)
		}
		base += e.len * bytesPerEntry(i)
	}
	return nil
}

func bytesPerEntry(level int) int32 {
	if level == 0 {
		return 4
	}
	return 2
}

// expandChunk computes the number of additional buckets to append to the
// terminal level when it would otherwise wrap:
// max(1 day, min(30 days, quarter-of-current-period rounded up to a day)).
func expandChunk(step int32, curLen int32) int32 {
	period := int64(step) * int64(curLen)
	quarter := roundUp(period/4, dayInSeconds)
	chunkSeconds := dayInSeconds
	if quarter < 30*dayInSeconds {
		chunkSeconds = quarter
	} else {
		chunkSeconds = 30 * dayInSeconds
	}
	if chunkSeconds < dayInSeconds {
		chunkSeconds = dayInSeconds
	}
	return int32(chunkSeconds / int64(step))
}
