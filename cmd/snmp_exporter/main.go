// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// snmp_exporter serves SNMP gets and walks over HTTP for the sessions in a
// YAML file, and exports Prometheus metrics about them.
//
//	curl 'localhost:9116/api/v1/walk/core1?oid=1.3.6.1.2.1.2.2.1.2'
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/netprobe/snmp"
)

func main() {
	configPath := flag.String("config", "snmp.yaml", "path to session config file")
	listen := flag.String("listen", ":9116", "address to serve HTTP on")
	debug := flag.Bool("debug", false, "log SNMP session debugging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := snmp.LoadConfig(*configPath)
	if err != nil {
		logger.Error("loading config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	server := NewServer(cfg, logger)
	defer server.Close()

	srv := &http.Server{Addr: *listen, Handler: server.Router(), ReadHeaderTimeout: 10 * time.Second}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", *listen, "sessions", len(cfg.Sessions))
	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serving", "err", err)
		os.Exit(1)
	}
}
