// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clustercockpit/tsstore/internal/config"
	"github.com/clustercockpit/tsstore/internal/httpapi"
	"github.com/clustercockpit/tsstore/internal/ingest"
	"github.com/clustercockpit/tsstore/internal/seriesstore"
)

func main() {
	var configFile string
	var flagGops bool
	flag.StringVar(&configFile, "config", "./config.json", "path to the tsstored configuration file")
	flag.BoolVar(&flagGops, "gops", false, "listen via github.com/google/gops/agent (for debugging)")
	flag.Parse()

	if err := config.Load(configFile); err != nil {
		cclog.Fatalf("[TSSTORE]> loading config: %s\n", err)
	}
	if flagGops || (config.Keys.Debug != nil && config.Keys.Debug.EnableGops) {
		if err := agent.Listen(agent.Options{}); err != nil {
			cclog.Fatalf("[TSSTORE]> gops/agent.Listen failed: %s\n", err)
		}
	}

	defaultStoreType := seriesstore.StoreAU
	if config.Keys.DefaultStoreType == "f16" {
		defaultStoreType = seriesstore.StoreF16
	}

	core, err := seriesstore.Init(config.Keys.DataDir)
	if err != nil {
		cclog.Fatalf("[TSSTORE]> %s\n", err)
	}
	seriesstore.MustRegister(prometheus.DefaultRegisterer)

	receiver, err := ingest.Connect(config.Keys.Ingest.NatsURL, core, defaultStoreType)
	if err != nil {
		cclog.Fatalf("[TSSTORE]> %s\n", err)
	}
	if err := receiver.Subscribe(config.Keys.Ingest.SubscribeTo); err != nil {
		cclog.Fatalf("[TSSTORE]> %s\n", err)
	}

	router := httpapi.NewRouter(core)
	server := &http.Server{Addr: config.Keys.HTTP.Address, Handler: router}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			cclog.Fatalf("[TSSTORE]> http server: %s\n", err)
		}
	}()
	cclog.Infof("[TSSTORE]> listening on %s\n", config.Keys.HTTP.Address)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	cclog.Info("[TSSTORE]> shutting down\n")
	receiver.Close()
	_ = server.Shutdown(context.Background())
	core.Shutdown()
}
