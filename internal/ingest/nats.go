// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ingest subscribes to a NATS subject carrying InfluxDB
// line-protocol samples and turns each decoded line into a write against
// the series store. Each line encodes one sample:
//
//	<series> value=<v> [<timestamp>]
//
// The series name is the line-protocol measurement; a "store" tag, if
// present, picks the codec a brand-new series file is created with ("au"
// or "f16"; without it, the receiver's default store type).
package ingest

import (
	"fmt"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
	"github.com/nats-io/nats.go"

	"github.com/clustercockpit/tsstore/internal/seriesstore"
)

// Writer is the subset of *seriesstore.Core the receiver needs, narrowed
// to keep this package testable without a live Core.
type Writer interface {
	Write(series string, storeType seriesstore.StoreType, t int64, value float64) error
}

// Receiver subscribes to one NATS subject and decodes every message it
// receives as a batch of line-protocol samples.
type Receiver struct {
	conn             *nats.Conn
	subject          string
	writer           Writer
	defaultStoreType seriesstore.StoreType
}

// Connect dials natsURL and returns a Receiver ready to Subscribe. Lines
// with no "store" tag create new series with defaultStoreType.
func Connect(natsURL string, writer Writer, defaultStoreType seriesstore.StoreType) (*Receiver, error) {
	conn, err := nats.Connect(natsURL,
		nats.ReconnectHandler(func(nc *nats.Conn) {
			cclog.Infof("[INGEST]> reconnected to %s\n", nc.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				cclog.Warnf("[INGEST]> disconnected: %s\n", err)
			}
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			cclog.Errorf("[INGEST]> nats error: %s\n", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("ingest: connecting to %s: %w", natsURL, err)
	}
	cclog.Infof("[INGEST]> connected to %s\n", natsURL)
	return &Receiver{conn: conn, writer: writer, defaultStoreType: defaultStoreType}, nil
}

// Subscribe starts decoding every message received on subject. It returns
// once the subscription is established; decoding happens on NATS's own
// dispatch goroutine.
func (r *Receiver) Subscribe(subject string) error {
	r.subject = subject
	_, err := r.conn.Subscribe(subject, func(msg *nats.Msg) {
		if err := r.decode(msg.Data); err != nil {
			cclog.Errorf("[INGEST]> decoding message on %s: %s\n", subject, err)
		}
	})
	if err != nil {
		return fmt.Errorf("ingest: subscribing to %s: %w", subject, err)
	}
	cclog.Infof("[INGEST]> subscribed to %s\n", subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (r *Receiver) Close() {
	r.conn.Close()
}

// decode reads every line-protocol line in data and writes the sample it
// describes. A "store" tag of "au" or "f16" requests that codec; any other
// value, or no tag, requests the receiver's default store type.
func (r *Receiver) decode(data []byte) error {
	dec := lineprotocol.NewDecoderWithBytes(data)
	now := time.Now()

	for dec.Next() {
		measurement, err := dec.Measurement()
		if err != nil {
			return err
		}
		series := string(measurement)

		storeType := r.defaultStoreType
		for {
			key, val, err := dec.NextTag()
			if err != nil {
				return err
			}
			if key == nil {
				break
			}
			if string(key) == "store" {
				switch string(val) {
				case "au":
					storeType = seriesstore.StoreAU
				case "f16":
					storeType = seriesstore.StoreF16
				}
			}
		}

		var value float64
		haveValue := false
		for {
			key, val, err := dec.NextField()
			if err != nil {
				return err
			}
			if key == nil {
				break
			}
			if string(key) != "value" {
				continue
			}
			switch val.Kind() {
			case lineprotocol.Float:
				value = val.FloatV()
			case lineprotocol.Int:
				value = float64(val.IntV())
			case lineprotocol.Uint:
				value = float64(val.UintV())
			default:
				return fmt.Errorf("ingest: series %s: unsupported field kind %s", series, val.Kind())
			}
			haveValue = true
		}
		if !haveValue {
			return fmt.Errorf("ingest: series %s: no 'value' field", series)
		}

		t, err := dec.Time(lineprotocol.Second, now)
		if err != nil {
			t = now
		}

		if err := r.writer.Write(series, storeType, t.Unix(), value); err != nil {
			cclog.Warnf("[INGEST]> writing %s: %s\n", series, err)
		}
	}
	return nil
}
