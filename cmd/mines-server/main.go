// Package main is the entry point for the Minesweeper game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MRamiBalles/minesweeper/server/internal/domain/board"
	"github.com/MRamiBalles/minesweeper/server/internal/engine"
	"github.com/MRamiBalles/minesweeper/server/internal/events"
	"github.com/MRamiBalles/minesweeper/server/internal/infra/storage"
	"github.com/MRamiBalles/minesweeper/server/internal/network"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/config"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/logger"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/metrics"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/optimization"
	"github.com/MRamiBalles/minesweeper/server/internal/session"
)

func main() {
	log.Println("[MINES-SERVER] Initializing Minesweeper server...")

	appLogger := logger.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		appLogger.Error("Invalid configuration: " + err.Error())
		os.Exit(1)
	}
	tuning, err := optimization.ForProfile(cfg.Profile)
	if err != nil {
		appLogger.Error(err.Error())
		os.Exit(1)
	}
	placement, err := board.ParsePlacement(cfg.Placement)
	if err != nil {
		appLogger.Error(err.Error())
		os.Exit(1)
	}

	appLogger.Infof("Initializing SQLite journal %q...", cfg.DBPath)
	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	defer db.Close()
	storage.ConfigurePool(db, tuning.DBMaxOpenConns, tuning.DBMaxIdleConns)

	collector := metrics.Get()
	eventRepo := storage.NewSQLiteEventRepository(db)
	eventLog := events.NewEventLog(storage.NewJournalPersister(eventRepo, collector), cfg.EventRetention)

	appLogger.Info("Bootstrapping session registry...")
	settings := engine.DefaultSettings()
	settings.Placement = placement
	settings.Metrics = collector
	sessions := session.NewManager(session.Options{
		Engine:        settings,
		MaxSessions:   tuning.MaxSessions,
		TTL:           cfg.SessionTTL,
		SweepInterval: tuning.SweepInterval,
	}, eventLog, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessions.Start(ctx)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(sessions, tuning, cfg.AllowedOrigins, appLogger, collector)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog, 200*time.Millisecond)

	// Setup API Routes
	mux := http.NewServeMux()
	network.NewAPI(sessions, appLogger).RegisterRoutes(mux)
	network.NewJournalHandler(eventRepo, eventLog, appLogger).RegisterRoutes(mux)
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("GET /metrics", collector.Handler())
	mux.HandleFunc("GET /metrics/prometheus", collector.PrometheusHandler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("[MINES-SERVER] HTTP API & WS Server listening on %s (profile %s, %s placement)", cfg.Addr, cfg.Profile, placement)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[MINES-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[MINES-SERVER] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Graceful shutdown failed: %v", err)
	}
}
