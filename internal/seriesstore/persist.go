// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// persist.go implements the on-disk side of a series log: creating a fresh
// file, loading and validating an existing one, deferred flushing, and
// growing the terminal level's array in place. Every series file is owned
// and touched by exactly one goroutine, the storage worker -- no locking
// is needed here.
package seriesstore

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
)

var fileByteOrder = binary.LittleEndian

// openOrCreateFile opens the series file at path. If it does not exist and
// want is a concrete store type, a fresh file is initialized with the
// default level table. If it exists, the file is loaded and validated;
// want may be storeNone to accept whatever store type is on disk.
func openOrCreateFile(path string, want StoreType) (*SeriesLog, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err == nil {
		return loadFile(f, path, want)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("seriesstore: open %s: %w", path, err)
	}
	if want == storeNone {
		return nil, fmt.Errorf("seriesstore: %w: %s", ErrUnknownSeries, path)
	}
	return createFile(path, want)
}

func createFile(path string, want StoreType) (*SeriesLog, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("seriesstore: create %s: %w", path, err)
	}

	lv := defaultLevelTable()
	c := codecFor(want)
	sl := &SeriesLog{
		path:      path,
		file:      f,
		storeType: want,
		codec:     c,
		levels:    lv,
		value0:    make([]float32, lv[0].len),
		values:    make([][]uint16, len(lv)),
		pending:   make([]int32, len(lv)),
		firstTime: math.MaxInt64,
	}
	for i := range sl.value0 {
		sl.value0[i] = float32(math.NaN())
	}
	for i := 1; i < len(lv); i++ {
		sl.values[i] = make([]uint16, lv[i].len)
		nan := c.nan()
		for j := range sl.values[i] {
			sl.values[i][j] = nan
		}
	}

	if err := writeHeaderAndTable(f, want, lv); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeFullArrays(sl); err != nil {
		f.Close()
		return nil, err
	}
	cclog.Infof("[TSSTORE]> created series file %s (type=%s)\n", path, want)
	return sl, nil
}

func loadFile(f *os.File, path string, want StoreType) (*SeriesLog, error) {
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	var storeType int32
	var levelCount int32
	hdr := make([]byte, headerSize)
	if _, err := f.ReadAt(hdr, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: reading header of %s: %v", ErrCorruptFile, path, err)
	}
	storeType = int32(fileByteOrder.Uint32(hdr[0:4]))
	levelCount = int32(fileByteOrder.Uint32(hdr[4:8]))

	if want != storeNone && StoreType(storeType) != want {
		f.Close()
		return nil, fmt.Errorf("%w: %s has type %d, requested %d", ErrTypeMismatch, path, storeType, want)
	}
	resolvedType := StoreType(storeType)
	if resolvedType != StoreAU && resolvedType != StoreF16 {
		f.Close()
		return nil, fmt.Errorf("%w: %s has unknown store type %d", ErrCorruptFile, path, storeType)
	}

	if levelCount < minLevels || levelCount > maxLevels {
		f.Close()
		return nil, fmt.Errorf("%w: %s has invalid level count %d", ErrCorruptFile, path, levelCount)
	}

	tableBuf := make([]byte, int(levelCount)*levelEntrySize)
	if _, err := f.ReadAt(tableBuf, headerSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: reading level table of %s: %v", ErrCorruptFile, path, err)
	}
	lv := make([]levelEntry, levelCount)
	for i := range lv {
		b := tableBuf[i*levelEntrySize : (i+1)*levelEntrySize]
		lv[i] = levelEntry{
			step: int32(fileByteOrder.Uint32(b[0:4])),
			off:  int32(fileByteOrder.Uint32(b[4:8])),
			len:  int32(fileByteOrder.Uint32(b[8:12])),
			time: fileByteOrder.Uint32(b[12:16]),
			pos:  int32(fileByteOrder.Uint32(b[16:20])),
		}
	}

	if lv[0].step != defaultSteps[0] {
		f.Close()
		return nil, fmt.Errorf("%w: %s level 0 step %d incompatible", ErrCorruptFile, path, lv[0].step)
	}
	if err := validateLevelTable(lv); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	last := &lv[len(lv)-1]
	needed := int64(last.off) + int64(last.len)*2
	if info.Size() < needed {
		f.Close()
		return nil, fmt.Errorf("%w: %s truncated (have %d, need %d)", ErrCorruptFile, path, info.Size(), needed)
	}

	value0 := make([]float32, lv[0].len)
	raw0 := make([]byte, lv[0].len*4)
	if _, err := f.ReadAt(raw0, int64(lv[0].off)); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: reading level 0 data of %s: %v", ErrCorruptFile, path, err)
	}
	for i := range value0 {
		value0[i] = math.Float32frombits(fileByteOrder.Uint32(raw0[i*4 : i*4+4]))
	}

	values := make([][]uint16, levelCount)
	for i := 1; i < int(levelCount); i++ {
		buf := make([]byte, lv[i].len*2)
		if _, err := f.ReadAt(buf, int64(lv[i].off)); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: reading level %d data of %s: %v", ErrCorruptFile, i, path, err)
		}
		vals := make([]uint16, lv[i].len)
		for j := range vals {
			vals[j] = fileByteOrder.Uint16(buf[j*2 : j*2+2])
		}
		values[i] = vals
	}

	sl := &SeriesLog{
		path:      path,
		file:      f,
		storeType: resolvedType,
		codec:     codecFor(resolvedType),
		levels:    lv,
		value0:    value0,
		values:    values,
		pending:   make([]int32, levelCount),
		firstTime: math.MaxInt64,
	}
	cclog.Infof("[TSSTORE]> loaded series file %s (type=%s, levels=%d)\n", path, resolvedType, levelCount)
	return sl, nil
}

func writeHeaderAndTable(f *os.File, t StoreType, lv []levelEntry) error {
	buf := make([]byte, headerSize+len(lv)*levelEntrySize)
	fileByteOrder.PutUint32(buf[0:4], uint32(t))
	fileByteOrder.PutUint32(buf[4:8], uint32(len(lv)))
	off := headerSize
	for _, e := range lv {
		b := buf[off : off+levelEntrySize]
		fileByteOrder.PutUint32(b[0:4], uint32(e.step))
		fileByteOrder.PutUint32(b[4:8], uint32(e.off))
		fileByteOrder.PutUint32(b[8:12], uint32(e.len))
		fileByteOrder.PutUint32(b[12:16], e.time)
		fileByteOrder.PutUint32(b[16:20], uint32(e.pos))
		off += levelEntrySize
	}
	_, err := f.WriteAt(buf, 0)
	return err
}

func writeFullArrays(sl *SeriesLog) error {
	raw0 := make([]byte, len(sl.value0)*4)
	for i, v := range sl.value0 {
		fileByteOrder.PutUint32(raw0[i*4:i*4+4], math.Float32bits(v))
	}
	if _, err := sl.file.WriteAt(raw0, int64(sl.levels[0].off)); err != nil {
		return err
	}
	for i := 1; i < len(sl.levels); i++ {
		buf := make([]byte, len(sl.values[i])*2)
		for j, v := range sl.values[i] {
			fileByteOrder.PutUint16(buf[j*2:j*2+2], v)
		}
		if _, err := sl.file.WriteAt(buf, int64(sl.levels[i].off)); err != nil {
			return err
		}
	}
	return nil
}

// flush persists the level table and every level with pending data to
// disk. force bypasses the gating and always writes if anything is
// pending. io errors are logged and pending counters are left untouched
// so a later flush retries.
func (sl *SeriesLog) flush(force bool) error {
	if !force && (!sl.isPending || int64(sl.levels[0].time) < sl.writeStep+writeMinStep) {
		return nil
	}
	if force && !sl.isPending && sl.pending[0] == 0 {
		return nil
	}
	if !force {
		now := wallClock()
		if now < sl.writeTime+writeMinWallTime {
			return nil
		}
	}
	sl.writeTime = wallClock()
	sl.writeStep = int64(sl.levels[0].time)

	if err := writeHeaderAndTable(sl.file, sl.storeType, sl.levels); err != nil {
		cclog.Errorf("[TSSTORE]> flush: writing level table for %s failed: %s\n", sl.path, err)
		FlushErrorsTotal.Inc()
		return fmt.Errorf("%w: %v", ErrFlushFailed, err)
	}

	for level := range sl.levels {
		if sl.pending[level] <= 0 {
			continue
		}
		if err := sl.flushLevel(level); err != nil {
			cclog.Errorf("[TSSTORE]> flush: writing level %d of %s failed: %s\n", level, sl.path, err)
			FlushErrorsTotal.Inc()
			return fmt.Errorf("%w: %v", ErrFlushFailed, err)
		}
		sl.pending[level] = 0
	}
	sl.isPending = false
	FlushesTotal.WithLabelValues(forcedLabel(force)).Inc()
	return nil
}

func forcedLabel(force bool) string {
	if force {
		return "true"
	}
	return "false"
}

// flushLevel writes the `pending[level]` most-recent buckets of a level to
// disk, handling ring wrap with up to two contiguous write regions.
func (sl *SeriesLog) flushLevel(level int) error {
	e := &sl.levels[level]
	pending := sl.pending[level]
	if pending > e.len {
		pending = e.len
	}
	bpos := e.pos - pending
	if bpos < 0 {
		bpos = 0
	}

	write := func(from, to int32) error {
		if from >= to {
			return nil
		}
		if level == 0 {
			buf := make([]byte, (to-from)*4)
			for i := from; i < to; i++ {
				fileByteOrder.PutUint32(buf[(i-from)*4:(i-from)*4+4], math.Float32bits(sl.value0[i]))
			}
			_, err := sl.file.WriteAt(buf, int64(e.off)+int64(from)*4)
			return err
		}
		buf := make([]byte, (to-from)*2)
		for i := from; i < to; i++ {
			fileByteOrder.PutUint16(buf[(i-from)*2:(i-from)*2+2], sl.values[level][i])
		}
		_, err := sl.file.WriteAt(buf, int64(e.off)+int64(from)*2)
		return err
	}

	if err := write(bpos, e.pos); err != nil {
		return err
	}
	if e.pos < pending {
		tailFrom := e.len - (pending - e.pos)
		if err := write(tailFrom, e.len); err != nil {
			return err
		}
	}
	return nil
}

// growTerminalLevel extends the append-only terminal level by expand
// buckets filled with NaN, both in memory and on disk.
func (sl *SeriesLog) growTerminalLevel(expand int32) error {
	level := len(sl.levels) - 1
	e := &sl.levels[level]
	nan := sl.codec.nan()
	oldLen := e.len

	newVals := make([]uint16, expand)
	for i := range newVals {
		newVals[i] = nan
	}
	sl.values[level] = append(sl.values[level], newVals...)

	buf := make([]byte, int(expand)*2)
	for i, v := range newVals {
		fileByteOrder.PutUint16(buf[i*2:i*2+2], v)
	}
	if _, err := sl.file.WriteAt(buf, int64(e.off)+int64(oldLen)*2); err != nil {
		return fmt.Errorf("seriesstore: growing terminal level of %s: %w", sl.path, err)
	}
	e.len += expand
	return nil
}

// wallClock is the only place series persistence consults the system clock,
// isolated so tests can observe deterministic behavior if ever needed.
func wallClock() int64 {
	return nowUnix()
}
