/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
LogCask gateway server - stream container decodes to WebSocket clients.

USAGE:
======

	logcask-serve [options]

OPTIONS:
========

	-config string    Path to configuration file (JSON format)
	-listen string    Listen address (overrides config)
	-version          Show version information

ENDPOINTS:
==========

	/ws        WebSocket decode gateway (see internal/server/ws)
	/metrics   Prometheus text metrics
	/healthz   Liveness probe
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"logcask/internal/banner"
	"logcask/internal/config"
	"logcask/internal/logging"
	"logcask/internal/metrics"
	"logcask/internal/server/ws"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to configuration file (JSON)")
		listenAddr = flag.String("listen", "", "listen address (overrides config)")
		version    = flag.Bool("version", false, "show version information")
	)
	flag.Parse()

	if *version {
		banner.PrintCompact()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.LogJSON)
	log := logging.NewLogger("serve")

	banner.PrintTo(os.Stderr)

	m := metrics.New()
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewGateway(cfg, m))
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("gateway listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("shutdown failed", "error", err.Error())
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}
}
