// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seriesstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := newTaskQueue()
	q.put(writeTask{series: "a"})
	q.put(writeTask{series: "b"})
	q.put(writeTask{series: "c"})

	first := q.get().(writeTask)
	second := q.get().(writeTask)
	third := q.get().(writeTask)
	assert.Equal(t, "a", first.series)
	assert.Equal(t, "b", second.series)
	assert.Equal(t, "c", third.series)
}

func TestQueuePutFrontJumpsAhead(t *testing.T) {
	q := newTaskQueue()
	q.put(writeTask{series: "a"})
	q.putFront(stopTask{})

	_, isStop := q.get().(stopTask)
	assert.True(t, isStop)
	next := q.get().(writeTask)
	assert.Equal(t, "a", next.series)
}

func TestQueueGetBlocksUntilPut(t *testing.T) {
	q := newTaskQueue()
	done := make(chan task, 1)
	go func() {
		done <- q.get()
	}()

	select {
	case <-done:
		t.Fatal("get() returned before anything was queued")
	case <-time.After(50 * time.Millisecond):
	}

	q.put(stopTask{})
	select {
	case got := <-done:
		_, ok := got.(stopTask)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("get() never unblocked after put()")
	}
}

func TestQueueTryGetNonBlocking(t *testing.T) {
	q := newTaskQueue()
	_, ok := q.tryGet()
	require.False(t, ok)

	q.put(stopTask{})
	task, ok := q.tryGet()
	require.True(t, ok)
	_, isStop := task.(stopTask)
	assert.True(t, isStop)
}

func TestQueueDepth(t *testing.T) {
	q := newTaskQueue()
	assert.Equal(t, 0, q.depth())
	q.put(stopTask{})
	q.put(stopTask{})
	assert.Equal(t, 2, q.depth())
	q.get()
	assert.Equal(t, 1, q.depth())
}
