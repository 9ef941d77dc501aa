// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seriesstore

import "errors"

// Sentinel errors for the series store's error kinds. Callers use errors.Is
// to tell recoverable conditions (stale sample, unknown series) from ones
// that make a series unusable (corrupt file).
var (
	// ErrCorruptFile: a series file failed structural validation on open
	// and is refused entirely.
	ErrCorruptFile = errors.New("seriesstore: corrupt or incompatible series file")

	// ErrTypeMismatch: an append targeted a series whose on-disk file has
	// a different store type than requested.
	ErrTypeMismatch = errors.New("seriesstore: store type mismatch")

	// ErrStaleSample: a sample arrived 60 s or more (or the whole level 0
	// ring, if that is shorter) behind level 0's newest bucket. Dropped,
	// not fatal.
	ErrStaleSample = errors.New("seriesstore: sample older than ring window")

	// ErrFlushFailed: an I/O error occurred while persisting to disk. The
	// in-memory state and pending counters survive for the next attempt.
	ErrFlushFailed = errors.New("seriesstore: flush failed")

	// ErrInvalidRange: a range or aggregate query had invalid parameters.
	ErrInvalidRange = errors.New("seriesstore: invalid query range")

	// ErrUnknownSeries: a read or open targeted a series with no file on
	// disk and no in-memory entry.
	ErrUnknownSeries = errors.New("seriesstore: unknown series")
)
