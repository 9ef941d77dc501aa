// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package seriesstore is the series log: one instance owns a single
// metric's on-disk file, the in-memory mirror of every resolution level,
// and the bookkeeping needed to gap-fill, roll up coarser levels, and defer
// flushes to disk. A SeriesLog is only ever touched by the storage
// worker goroutine; it holds no internal lock.
package seriesstore

import (
	"fmt"
	"math"
	"os"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
)

// SeriesLog is the in-memory + on-disk state for one named metric.
type SeriesLog struct {
	path      string
	file      *os.File
	storeType StoreType
	codec     codec

	levels []levelEntry
	value0 []float32  // level 0, raw float32
	values [][]uint16 // values[i] for i>=1, codec codewords; values[0] unused

	pending   []int32 // per-level count of buckets not yet flushed
	isPending bool    // true if any level >= 1 has pending data

	firstTime int64 // smallest sample time ever observed, math.MaxInt64 if none
	writeTime int64 // wall-clock time of the last flush
	writeStep int64 // level 0 data time at the last flush
}

// openSeries loads an existing file or creates one if want is a concrete
// store type and none exists.
func openSeries(path string, want StoreType) (*SeriesLog, error) {
	return openOrCreateFile(path, want)
}

// Close forces a flush and releases the file handle.
func (sl *SeriesLog) Close() error {
	if err := sl.flush(true); err != nil {
		cclog.Errorf("[TSSTORE]> closing %s: forced flush failed: %s\n", sl.path, err)
	}
	return sl.file.Close()
}

// Append writes one (time, value) sample at level 0, gap-filling any
// skipped buckets and rolling up finer levels into coarser ones as level 0
// advances. time is epoch seconds; it is snapped down to level 0's step
// before anything else happens.
func (sl *SeriesLog) Append(t int64, value float64) error {
	step0 := int64(sl.levels[0].step)
	t -= t % step0

	guard := min64(staleGuardMax, step0*int64(sl.levels[0].len))
	if t+guard <= int64(sl.levels[0].time) {
		cclog.Warnf("[TSSTORE]> %s: dropping stale sample at %d (last=%d)\n", sl.path, t, sl.levels[0].time)
		StaleSamplesTotal.Inc()
		return fmt.Errorf("%w: t=%d last=%d", ErrStaleSample, t, sl.levels[0].time)
	}

	if t < sl.firstTime {
		sl.firstTime = t
	}

	lv0 := &sl.levels[0]

	// Fill intervening buckets with NaN as level 0 advances toward t.
	for lv0.time != 0 {
		next := int64(lv0.time) + step0
		if next >= t {
			break
		}
		sl.value0[lv0.pos] = float32(math.NaN())
		lv0.pos++
		sl.pending[0]++
		if lv0.pos >= lv0.len {
			lv0.pos = 0
		}
		lv0.time = uint32(next)
		sl.rollUp()
	}

	// Position of the bucket for t: either the next write, or a position
	// already covered by the ring (a historical back-fill).
	var writePos int32
	if lv0.time == 0 {
		writePos = 0
	} else {
		back := (int64(lv0.time) + step0 - t) / step0
		writePos = int32((int64(lv0.pos) + int64(lv0.len) - back) % int64(lv0.len))
	}
	sl.value0[writePos] = float32(value)

	if lv0.time == 0 || t > int64(lv0.time) {
		lv0.pos++
		sl.pending[0]++
		if lv0.pos >= lv0.len {
			lv0.pos = 0
		}
		lv0.time = uint32(t)
		sl.rollUp()
	} else {
		// Historical back-fill: widen the pending window so the next
		// flush rewrites the affected region.
		behind := int32((int64(lv0.time)-t)/step0) + 1
		if behind > sl.pending[0] {
			sl.pending[0] = behind
		}
	}

	if sl.isPending {
		if err := sl.flush(false); err != nil {
			return err
		}
	}
	return nil
}

// rollUp advances every level above 0 as far as the current level-0 data
// time and the rollup delay allow.
func (sl *SeriesLog) rollUp() {
	for level := 1; level < len(sl.levels); level++ {
		sl.rollUpLevel(level)
	}
}

func (sl *SeriesLog) rollUpLevel(level int) {
	e := &sl.levels[level]
	step := int64(e.step)

	last := ceilToStep(int64(e.time), step)
	if last == 0 {
		last = ceilToStep(sl.firstTime, step) - step
	}
	dataTime := int64(sl.levels[0].time)

	for dataTime >= last+step+rollupDelay {
		cur := last + step
		mintime0 := lvMinTime(int64(sl.levels[0].time), int64(sl.levels[0].len), int64(sl.levels[0].step))
		winStart := cur - step + int64(sl.levels[0].step)
		if winStart < mintime0 {
			winStart = mintime0
		}

		sum, count := 0.0, 0
		bpos0 := lvTimePos(winStart, int64(sl.levels[0].time), int64(sl.levels[0].pos), int64(sl.levels[0].len), int64(sl.levels[0].step))
		if bpos0 >= 0 {
			pos := bpos0
			for st := winStart; st <= cur; st += int64(sl.levels[0].step) {
				if pos >= int(sl.levels[0].len) {
					pos = 0
				}
				v := float64(sl.value0[pos])
				if !math.IsNaN(v) {
					sum += v
					count++
				}
				pos++
			}
		}

		var code uint16
		if count > 0 {
			code = sl.codec.encode(sum / float64(count))
		} else {
			code = sl.codec.nan()
		}
		sl.values[level][e.pos] = code
		e.time = uint32(cur)
		e.pos++
		if e.pos >= e.len {
			if level != len(sl.levels)-1 {
				e.pos = 0
			} else if err := sl.growTerminalLevel(expandChunk(e.step, e.len)); err != nil {
				cclog.Errorf("[TSSTORE]> %s: growing terminal level failed: %s\n", sl.path, err)
			}
		}
		sl.pending[level]++
		sl.isPending = true

		last = cur
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// ceilToStep rounds steptime up to the next multiple of step, leaving 0 at
// 0 (mirrors the original roundtime(), distinct from roundUp() which treats
// 0 as 1).
func ceilToStep(steptime, step int64) int64 {
	r := steptime + step - 1
	return r - r%step
}

// lvMinTime returns the oldest live bucket time a ring level with the given
// last-write time, length and step still holds, or 0 if it holds nothing.
func lvMinTime(wtime, length, step int64) int64 {
	if wtime < step*length-step {
		if wtime == 0 {
			return 0
		}
		return step
	}
	return wtime - step*length + step
}

// lvTimePos locates the ring index of bucket `t` given a level's last
// write (wtime at wpos), or -1 if t precedes the level's oldest live data.
func lvTimePos(t, wtime, wpos, length, step int64) int {
	mintime := lvMinTime(wtime, length, step)
	if mintime == 0 || t < mintime {
		return -1
	}
	pos := wpos - 1 - (wtime-t)/step
	if pos < 0 {
		pos += length
	}
	return int(pos)
}
