// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// registry.go maps series names to open SeriesLog handles, creating files
// lazily on first touch. Like SeriesLog itself, a registry is only ever
// touched by the storage worker goroutine.
package seriesstore

import (
	"fmt"
	"path/filepath"
	"regexp"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
)

// seriesNamePattern restricts series names to characters that are safe to
// turn directly into a file name, closing off path traversal.
var seriesNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,255}$`)

// registry owns every open SeriesLog under one storage directory.
type registry struct {
	dir    string
	series map[string]*SeriesLog
}

func newRegistry(dir string) *registry {
	return &registry{dir: dir, series: make(map[string]*SeriesLog)}
}

// open returns the SeriesLog for name, opening or creating its file if this
// is the first time the registry has seen it. want may be storeNone for a
// read-only lookup that must not create a new series.
func (r *registry) open(name string, want StoreType) (*SeriesLog, error) {
	if sl, ok := r.series[name]; ok {
		return sl, nil
	}
	if !seriesNamePattern.MatchString(name) {
		return nil, fmt.Errorf("seriesstore: invalid series name %q", name)
	}

	path := filepath.Join(r.dir, name+".alog")
	sl, err := openOrCreateFile(path, want)
	if err != nil {
		return nil, err
	}
	r.series[name] = sl
	OpenSeries.Set(float64(len(r.series)))
	return sl, nil
}

// closeAll forces a flush and closes every open series, logging but not
// aborting on individual failures.
func (r *registry) closeAll() {
	for name, sl := range r.series {
		if err := sl.Close(); err != nil {
			cclog.Errorf("[TSSTORE]> closing series %s: %s\n", name, err)
		}
		delete(r.series, name)
	}
	OpenSeries.Set(0)
}

// names returns every series name currently open, for diagnostics.
func (r *registry) names() []string {
	out := make([]string, 0, len(r.series))
	for name := range r.series {
		out = append(out, name)
	}
	return out
}
