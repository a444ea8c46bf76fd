/*
main.go - Stand-in ledger server entry point

PURPOSE:
  Serves the ledger protocol over a local SQLite dataset, standing in for the
  external budgeting service during development and integration testing.

COMMAND-LINE FLAGS:
  -port        HTTP server port (default: 8080)
  -db          SQLite dataset path (default: ledger.db, ":memory:" works)
  -sync-id     Dataset sync identifier to serve (default: "default")
  -credential  Bearer credential to require (empty disables auth)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database
  4. Exit

EXAMPLES:
  # Serve a seeded dataset file
  ./ledgerd -db=./testdata/ledger.db -sync-id=my-budget -credential=secret

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite:  Dataset storage
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

	"github.com/warp/accrual-engine/api"
	"github.com/warp/accrual-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "ledger.db", "SQLite dataset path")
	syncID := flag.String("sync-id", "default", "dataset sync identifier to serve")
	credential := flag.String("credential", "", "bearer credential to require")
	flag.Parse()

	// Initialize dataset store
	store, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open dataset: %v", err)
	}
	defer store.Close()

	// Create router
	handler := api.NewHandler(store, *syncID)
	router := api.NewRouter(handler, *credential)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Ledger stand-in serving dataset %q on http://localhost:%d", *syncID, *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
