// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

const configSchema = `{
  "type": "object",
  "description": "Configuration for tsstored, the time-series storage daemon.",
  "properties": {
    "data-dir": {
      "description": "Filesystem directory holding one .alog file per series.",
      "type": "string"
    },
    "default-store-type": {
      "description": "Codec new series are created with: 'au' or 'f16'.",
      "type": "string",
      "enum": ["au", "f16"]
    },
    "ingest": {
      "description": "NATS-based ingestion of line-protocol samples.",
      "type": "object",
      "properties": {
        "nats-url": {
          "description": "NATS server URL, e.g. nats://localhost:4222",
          "type": "string"
        },
        "subscribe-to": {
          "description": "NATS subject to subscribe to for incoming measurements.",
          "type": "string"
        }
      },
      "required": ["nats-url", "subscribe-to"]
    },
    "http": {
      "description": "Dashboard query HTTP endpoint.",
      "type": "object",
      "properties": {
        "address": {
          "description": "Listen address, e.g. ':8080'.",
          "type": "string"
        }
      },
      "required": ["address"]
    },
    "debug": {
      "description": "Development and profiling options.",
      "type": "object",
      "properties": {
        "gops": {
          "description": "Enable the gops agent for live runtime introspection.",
          "type": "boolean"
        }
      }
    }
  },
  "required": ["data-dir", "default-store-type", "ingest", "http"]
}`
