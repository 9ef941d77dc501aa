// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `{
	"data-dir": "/var/lib/tsstored",
	"default-store-type": "f16",
	"ingest": {
		"nats-url": "nats://localhost:4222",
		"subscribe-to": "metrics.>"
	},
	"http": {
		"address": ":8080"
	}
}`

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadPopulatesKeysFromFile(t *testing.T) {
	path := writeConfigFile(t, validConfig)

	require.NoError(t, Load(path))
	assert.Equal(t, "/var/lib/tsstored", Keys.DataDir)
	assert.Equal(t, "f16", Keys.DefaultStoreType)
	assert.Equal(t, "nats://localhost:4222", Keys.Ingest.NatsURL)
	assert.Equal(t, "metrics.>", Keys.Ingest.SubscribeTo)
	assert.Equal(t, ":8080", Keys.HTTP.Address)
}

func TestLoadMissingFileErrors(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}
