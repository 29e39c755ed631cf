package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alvslovescyber/dashingly/internal/database"
	"github.com/alvslovescyber/dashingly/internal/logging"
	"github.com/alvslovescyber/dashingly/internal/logicalday"
	"github.com/alvslovescyber/dashingly/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("DASHINGLY_LOG_LEVEL"))

	port := os.Getenv("DASHINGLY_PORT")
	if port == "" {
		port = "3847"
	}

	dbPath := os.Getenv("DASHINGLY_DB_PATH")
	if dbPath == "" {
		dbPath = "dashingly.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	maxRuns := 3
	if v := os.Getenv("DASHINGLY_AI_MAX_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxRuns = n
		}
	}

	baseURL := fmt.Sprintf("http://%s:%s", server.LANIP(), port)
	cfg := server.Config{
		DBPath:          dbPath,
		BaseURL:         baseURL,
		VaultPassphrase: os.Getenv("DASHINGLY_VAULT_KEY"),
		HealthSecret:    os.Getenv("HEALTH_SYNC_SHARED_SECRET"),
		AIMaxRunsPerDay: maxRuns,
	}

	srv := server.New(db, cfg, logger)

	// The AI throttle resets at the logical day boundary (noon), not
	// midnight.
	stopReset := make(chan struct{})
	go resetCountersAtDayBoundary(srv, stopReset)
	defer close(stopReset)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("dashingly listening", "addr", baseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// resetCountersAtDayBoundary watches for the logical day to roll over and
// zeroes the AI throttle when it does.
func resetCountersAtDayBoundary(srv *server.Server, stop <-chan struct{}) {
	current := logicalday.Today()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if today := logicalday.Today(); today != current {
				current = today
				srv.Generator().ResetDailyCounters()
			}
		case <-stop:
			return
		}
	}
}
