// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clustercockpit/tsstore/internal/seriesstore"
)

type recordedWrite struct {
	series    string
	storeType seriesstore.StoreType
	t         int64
	value     float64
}

type fakeWriter struct {
	writes []recordedWrite
	err    error
}

func (f *fakeWriter) Write(series string, storeType seriesstore.StoreType, t int64, value float64) error {
	f.writes = append(f.writes, recordedWrite{series, storeType, t, value})
	return f.err
}

func TestDecodeDefaultStoreType(t *testing.T) {
	fw := &fakeWriter{}
	r := &Receiver{writer: fw, defaultStoreType: seriesstore.StoreAU}

	err := r.decode([]byte("cpu_load value=1.5 1700000000\n"))
	require.NoError(t, err)
	require.Len(t, fw.writes, 1)
	assert.Equal(t, "cpu_load", fw.writes[0].series)
	assert.Equal(t, seriesstore.StoreAU, fw.writes[0].storeType)
	assert.Equal(t, int64(1700000000), fw.writes[0].t)
	assert.Equal(t, 1.5, fw.writes[0].value)
}

func TestDecodeStoreTagOverridesDefault(t *testing.T) {
	fw := &fakeWriter{}
	r := &Receiver{writer: fw, defaultStoreType: seriesstore.StoreAU}

	err := r.decode([]byte("mem_used,store=f16 value=42 1700000000\n"))
	require.NoError(t, err)
	require.Len(t, fw.writes, 1)
	assert.Equal(t, seriesstore.StoreF16, fw.writes[0].storeType)
}

func TestDecodeMultipleLinesInOneMessage(t *testing.T) {
	fw := &fakeWriter{}
	r := &Receiver{writer: fw, defaultStoreType: seriesstore.StoreAU}

	err := r.decode([]byte("a value=1 1700000000\nb value=2 1700000005\n"))
	require.NoError(t, err)
	require.Len(t, fw.writes, 2)
	assert.Equal(t, "a", fw.writes[0].series)
	assert.Equal(t, "b", fw.writes[1].series)
}

func TestDecodeMissingValueFieldErrors(t *testing.T) {
	fw := &fakeWriter{}
	r := &Receiver{writer: fw, defaultStoreType: seriesstore.StoreAU}

	err := r.decode([]byte("no_value other=1 1700000000\n"))
	assert.Error(t, err)
}
