// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seriesstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryOpenCreatesFileLazily(t *testing.T) {
	reg := newRegistry(t.TempDir())
	sl, err := reg.open("cpu_load", StoreAU)
	require.NoError(t, err)
	assert.Equal(t, StoreAU, sl.storeType)

	again, err := reg.open("cpu_load", StoreAU)
	require.NoError(t, err)
	assert.Same(t, sl, again, "second open should return the cached handle")
}

func TestRegistryOpenRejectsBadName(t *testing.T) {
	reg := newRegistry(t.TempDir())
	_, err := reg.open("../escape", StoreAU)
	assert.Error(t, err)
}

// registry.open's ErrUnknownSeries is an internal signal, not a
// user-visible failure: Core.Range/Aggregate catch it and synthesize the
// all-NaN/all-zero answer a reader gets for a series that was never
// written (see core_test.go).
func TestRegistryOpenUnknownSeriesWithoutCreate(t *testing.T) {
	reg := newRegistry(t.TempDir())
	_, err := reg.open("never_written", storeNone)
	assert.ErrorIs(t, err, ErrUnknownSeries)
}

func TestRegistryCloseAllClearsEntries(t *testing.T) {
	reg := newRegistry(t.TempDir())
	_, err := reg.open("mem_used", StoreF16)
	require.NoError(t, err)
	require.Len(t, reg.names(), 1)

	reg.closeAll()
	assert.Empty(t, reg.names())
}
