// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates tsstored's JSON configuration file
// against configSchema, the way cc-backend's internal/config package
// validates its own config.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Ingest configures the NATS line-protocol receiver.
type Ingest struct {
	NatsURL     string `json:"nats-url"`
	SubscribeTo string `json:"subscribe-to"`
}

// HTTP configures the dashboard query endpoint.
type HTTP struct {
	Address string `json:"address"`
}

// Debug carries development/profiling toggles.
type Debug struct {
	EnableGops bool `json:"gops"`
}

// Config is the top-level tsstored configuration, loaded from a JSON file
// named on the command line.
type Config struct {
	DataDir          string `json:"data-dir"`
	DefaultStoreType string `json:"default-store-type"`
	Ingest           Ingest `json:"ingest"`
	HTTP             HTTP   `json:"http"`
	Debug            *Debug `json:"debug"`
}

// Keys is the global configuration instance, populated by Load.
var Keys Config = Config{
	DataDir:          "./var/series",
	DefaultStoreType: "au",
}

// Load reads and validates the config file at path, then unmarshals it
// into Keys.
func Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	Validate(configSchema, raw)

	if err := json.Unmarshal(raw, &Keys); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// Validate checks instance against schema, terminating the process on
// failure the way cc-backend's config validation does -- a malformed
// config is a startup-time, not a runtime, error.
func Validate(schema string, instance json.RawMessage) {
	sch, err := jsonschema.CompileString("schema.json", schema)
	if err != nil {
		cclog.Fatalf("%#v", err)
	}

	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		cclog.Fatal(err)
	}
	if err := sch.Validate(v); err != nil {
		cclog.Fatalf("%#v", err)
	}
}
