// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package httpapi is the dashboard query endpoint: a small JSON/HTTP API
// in front of the series store's Range and Aggregate read paths, plus
// the Prometheus /metrics handler.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clustercockpit/tsstore/internal/seriesstore"
)

// RangeResponse is the JSON body returned by GET /api/range.
type RangeResponse struct {
	Series string    `json:"series"`
	Start  int64     `json:"start"`
	End    int64     `json:"end"`
	Step   int64     `json:"step"`
	Data   []float64 `json:"data"`
}

// AggregateResponse is the JSON body returned by GET /api/aggregate.
type AggregateResponse struct {
	Series     string    `json:"series"`
	Level      string    `json:"level"`
	Boundaries []int64   `json:"boundaries"`
	Data       []float64 `json:"data"`
}

// APIError is the JSON body returned on a 4xx/5xx response.
type APIError struct {
	Error string `json:"error"`
}

// NewRouter builds the mux.Router serving the dashboard endpoints backed
// by core.
func NewRouter(core *seriesstore.Core) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/range", rangeHandler(core)).Methods(http.MethodGet)
	r.HandleFunc("/api/aggregate", aggregateHandler(core)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func rangeHandler(core *seriesstore.Core) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		series := q.Get("series")
		if series == "" {
			writeError(w, http.StatusBadRequest, "missing 'series' parameter")
			return
		}
		start, err1 := strconv.ParseInt(q.Get("start"), 10, 64)
		end, err2 := strconv.ParseInt(q.Get("end"), 10, 64)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "invalid 'start'/'end' parameter")
			return
		}
		cur := time.Now().Unix()
		if c, err := strconv.ParseInt(q.Get("cur"), 10, 64); err == nil {
			cur = c
		}
		length := int32(500)
		if l, err := strconv.ParseInt(q.Get("length"), 10, 32); err == nil {
			length = int32(l)
		}

		// core.Range itself answers an unknown series with all-NaN data,
		// not an error, so a non-nil err here is a genuine failure.
		data, err := core.Range(series, start, end, cur, length)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, RangeResponse{Series: series, Start: start, End: end, Data: data})
	}
}

func aggregateHandler(core *seriesstore.Core) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		series := q.Get("series")
		if series == "" {
			writeError(w, http.StatusBadRequest, "missing 'series' parameter")
			return
		}
		start, err1 := strconv.ParseInt(q.Get("start"), 10, 64)
		end, err2 := strconv.ParseInt(q.Get("end"), 10, 64)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "invalid 'start'/'end' parameter")
			return
		}
		level, ok := parseAggrLevel(q.Get("level"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid 'level' parameter")
			return
		}

		// core.Aggregate itself answers an unknown series with all-zero
		// data, not an error, so a non-nil err here is a genuine failure.
		plannedLevel, boundaries, data, err := core.Aggregate(series, level, start, end)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, AggregateResponse{
			Series:     series,
			Level:      aggrLevelName(plannedLevel),
			Boundaries: boundaries,
			Data:       data,
		})
	}
}

func parseAggrLevel(s string) (seriesstore.AggrLevel, bool) {
	switch s {
	case "minute":
		return seriesstore.AggrMinute, true
	case "hour":
		return seriesstore.AggrHour, true
	case "day":
		return seriesstore.AggrDay, true
	case "week":
		return seriesstore.AggrWeek, true
	case "month":
		return seriesstore.AggrMonth, true
	case "year":
		return seriesstore.AggrYear, true
	default:
		return 0, false
	}
}

func aggrLevelName(l seriesstore.AggrLevel) string {
	switch l {
	case seriesstore.AggrMinute:
		return "minute"
	case seriesstore.AggrHour:
		return "hour"
	case seriesstore.AggrDay:
		return "day"
	case seriesstore.AggrWeek:
		return "week"
	case seriesstore.AggrMonth:
		return "month"
	default:
		return "year"
	}
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		cclog.Errorf("[HTTPAPI]> encoding response failed: %s\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{Error: msg})
}
