// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// worker.go runs the single goroutine that owns every SeriesLog: it drains
// the task queue, applies writes, answers reads, and flushes series on
// shutdown.
package seriesstore

import (
	"sync"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
)

// worker drains q against reg until it receives a stopTask, then closes
// every open series and signals done.
type worker struct {
	reg  *registry
	q    *taskQueue
	done chan struct{}
}

func newWorker(reg *registry, q *taskQueue) *worker {
	return &worker{reg: reg, q: q, done: make(chan struct{})}
}

// run is the worker's goroutine body. Call it with `go w.run(&wg)`.
func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(w.done)
	defer w.reg.closeAll()

	for {
		t := w.q.get()
		switch v := t.(type) {
		case stopTask:
			return
		case writeTask:
			w.handleWrite(v)
		case readTask:
			w.handleRead(v)
		default:
			cclog.Errorf("[TSSTORE]> worker: unknown task type %T\n", t)
		}
	}
}

func (w *worker) handleWrite(t writeTask) {
	sl, err := w.reg.open(t.series, t.storeType)
	if err != nil {
		cclog.Errorf("[TSSTORE]> write to %s failed: %s\n", t.series, err)
		if t.done != nil {
			t.done <- err
		}
		return
	}
	err = sl.Append(t.time, t.value)
	if t.done != nil {
		t.done <- err
	}
}

func (w *worker) handleRead(t readTask) {
	sl, err := w.reg.open(t.series, storeNone)
	t.fn(sl, err)
	if t.done != nil {
		close(t.done)
	}
}
