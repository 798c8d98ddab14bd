/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the L&T Connect server. Handles configuration,
  dependency injection, background jobs, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env / environment), apply flag overrides
  2. Initialize SQLite store
  3. Wire the membership cache and (optionally) the AI assistant
  4. Configure HTTP router
  5. Start the background scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, waiting for running jobs
  4. Close the database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/connect.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on a different port
  ./server -port=3000

SEE ALSO:
  - config/config.go: Environment configuration
  - api/server.go: Router configuration
  - api/scheduler.go: Background jobs
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lntconnect/connect/api"
	"github.com/lntconnect/connect/assist"
	"github.com/lntconnect/connect/config"
	"github.com/lntconnect/connect/session"
	"github.com/lntconnect/connect/store/sqlite"
)

func main() {
	cfg := config.Load()

	// Flags override the environment.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Assistant is optional; when disabled the endpoints answer 503.
	var draft *assist.DraftService
	if cfg.AssistEnabled {
		client := assist.NewOllamaClient(assist.Config{
			Enabled:    true,
			Endpoint:   cfg.AssistEndpoint,
			Model:      cfg.AssistModel,
			TimeoutMs:  cfg.AssistTimeoutMs,
			MaxRetries: cfg.AssistMaxRetries,
		})
		draft = assist.NewDraftService(client, true)
		log.Printf("[Server] Assistant enabled: %s (%s)", cfg.AssistEndpoint, cfg.AssistModel)
	}

	handler := api.NewHandler(store, session.NewCache(), draft)
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	// Background jobs
	scheduler := api.NewScheduler(store, api.SchedulerConfig{
		DayCloseSpec:       cfg.DayCloseSpec,
		HealthSnapshotSpec: cfg.HealthSnapshotSpec,
		DayEndHour:         cfg.DayEndHour,
		WeekendMinMinutes:  cfg.WeekendMinMinutes,
	})
	if cfg.SchedulerEnabled {
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	} else {
		log.Println("[Server] Scheduler disabled")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("[Server] Listening on http://localhost:%d", *port)
		log.Printf("[Server] API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Server] Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	scheduler.Stop()

	log.Println("[Server] Stopped")
}
