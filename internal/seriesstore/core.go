// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package seriesstore's core.go is the public facade: Init starts the
// single storage worker goroutine, and Write/Range/Aggregate hand work to
// it through the task queue and block for the answer. Everything below
// this file is private to the worker goroutine.
package seriesstore

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
)

// Core is one running instance of the series store: a directory of series
// files, a task queue and the worker goroutine draining it.
type Core struct {
	q   *taskQueue
	w   *worker
	wg  sync.WaitGroup
	dir string
}

// Init creates dataDir if needed and starts the storage worker. Callers
// must call Shutdown to flush pending data and release file handles.
func Init(dataDir string) (*Core, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("seriesstore: creating data dir %s: %w", dataDir, err)
	}

	c := &Core{
		q:   newTaskQueue(),
		dir: dataDir,
	}
	c.w = newWorker(newRegistry(dataDir), c.q)
	c.wg.Add(1)
	go c.w.run(&c.wg)
	cclog.Infof("[TSSTORE]> storage worker started, data dir %s\n", dataDir)
	return c, nil
}

// Shutdown asks the worker to stop, which forces a flush of every open
// series, and waits for it to exit.
func (c *Core) Shutdown() {
	c.q.putFront(stopTask{})
	c.wg.Wait()
	cclog.Infof("[TSSTORE]> storage worker stopped\n")
}

// QueueDepth reports the number of tasks currently waiting, for the
// Prometheus queue-depth gauge.
func (c *Core) QueueDepth() int {
	return c.q.depth()
}

// Write appends one sample to series, creating its file with storeType if
// this is the first write. It blocks until the worker has applied it.
func (c *Core) Write(series string, storeType StoreType, t int64, value float64) error {
	done := make(chan error, 1)
	c.q.put(writeTask{series: series, storeType: storeType, time: t, value: value, done: done})
	return <-done
}

// Range answers a dashboard range query against series: cur is the
// caller's notion of "now", length the desired number of points. A
// series with no file on disk is not an error: it answers as if it
// existed but held no samples, an all-NaN result over the planned range.
func (c *Core) Range(series string, start, end, cur int64, length int32) ([]float64, error) {
	var out []float64
	var readErr error
	done := make(chan struct{})
	c.q.put(readTask{
		series: series,
		done:   done,
		fn: func(sl *SeriesLog, err error) {
			if err != nil {
				if errors.Is(err, ErrUnknownSeries) {
					out = nanRange(start, end, cur, length)
					return
				}
				readErr = err
				return
			}
			rstart, rend, step := sl.GetRangeParam(start, end, cur, length)
			if rstart == rend {
				return
			}
			out, readErr = sl.Range(rstart, rend, step, nil)
		},
	})
	<-done
	return out, readErr
}

// Aggregate answers a calendar aggregation query against series at the
// requested granularity over [start, end). A series with no file on disk
// is not an error: it answers as if it existed but held no samples, an
// all-zero result over the planned boundaries.
func (c *Core) Aggregate(series string, level AggrLevel, start, end int64) (AggrLevel, []int64, []float64, error) {
	plannedLevel, boundaries := PlanAggregation(level, start, end)
	var out []float64
	var readErr error
	done := make(chan struct{})
	c.q.put(readTask{
		series: series,
		done:   done,
		fn: func(sl *SeriesLog, err error) {
			if err != nil {
				if errors.Is(err, ErrUnknownSeries) {
					out = make([]float64, len(boundaries)-1)
					return
				}
				readErr = err
				return
			}
			out = sl.Aggregate(boundaries, nil)
		},
	})
	<-done
	if readErr != nil {
		return plannedLevel, nil, nil, readErr
	}
	if out == nil {
		out = make([]float64, len(boundaries)-1)
	}
	return plannedLevel, boundaries, out, nil
}

// nanRange plans a range the way an existing series would and fills it
// with NaN, for a series that has never been written.
func nanRange(start, end, cur int64, length int32) []float64 {
	rstart, rend, step := rangeParam(defaultLevelTable(), start, end, cur, length)
	if rstart == rend {
		return nil
	}
	out := make([]float64, 0, (rend-rstart)/step)
	for t := rstart; t < rend; t += step {
		out = append(out, math.NaN())
	}
	return out
}
