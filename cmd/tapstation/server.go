// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// The Tap Station serves the checkpoint queue-tracking API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/go-chi/chi/v5"

	"github.com/flowstate/tap-station/pkg/conf"
	"github.com/flowstate/tap-station/pkg/ext"
	"github.com/flowstate/tap-station/pkg/ingest"
	"github.com/flowstate/tap-station/pkg/queue"
	"github.com/flowstate/tap-station/pkg/stor"
)

// Server context
type Server struct {
	*conf.Config
	stor.Store
	Analyzer *queue.Analyzer
	Gateway  *ingest.Gateway
	Pipeline *ext.Pipeline
	Router   *chi.Mux
}

func main() {

	s := Server{}

	// Initialize the configuration from a config file or/and environment variables
	configFile := os.Getenv("TAPSTATION_CONFIG")
	c, err := conf.Init(configFile)
	if err != nil {
		log.Println("Configuration failed: " + err.Error())
		os.Exit(1)
	}
	s.Config = c

	s.initialize()

	// Set the log level and format
	if s.Config.LogLevel != "" {
		level, err := log.ParseLevel(s.Config.LogLevel)
		if err != nil {
			log.Println("Invalid log level specified, defaulting to debug")
			level = log.DebugLevel
		}
		log.SetLevel(level)
		log.SetFormatter(&log.TextFormatter{})
	}

	// Graceful shutdown
	server := &http.Server{
		Addr:    ":" + strconv.Itoa(c.Port),
		Handler: s.Router,
	}

	// System signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Apply queue tuning changes without a restart
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	err = conf.Watch(watchCtx, configFile, func(fresh *conf.Config) {
		s.Analyzer.SetTuning(fresh.Queue)
		log.Println("Queue tuning reloaded from configuration")
	})
	if err != nil {
		log.Printf("Configuration watch unavailable: %v", err)
	}

	go func() {
		log.Println("Server starting on port " + strconv.Itoa(c.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutdown requested, initiating graceful shutdown...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Error during shutdown: %v", err)
	}
	log.Println("Server halted.")
}

// initialize sets the database, services and routes
func (s *Server) initialize() {
	var err error

	// Init database
	s.Store, err = stor.Init(s.Config.Dsn)
	if err != nil {
		log.Println("Database setup failed: " + err.Error())
		os.Exit(1)
	}

	// Init services; extension loading mechanics live outside the core,
	// so the pipeline starts empty here.
	s.Pipeline = ext.NewPipeline()
	s.Analyzer = queue.NewAnalyzer(s.Config, s.Store)
	s.Gateway = ingest.NewGateway(s.Store, s.Pipeline)

	// Init routes
	s.Router = s.setRoutes()
}
