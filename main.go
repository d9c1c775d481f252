// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"recordstorebot/internal/auth"
	"recordstorebot/internal/catalog"
	"recordstorebot/internal/cleanup"
	"recordstorebot/internal/config"
	"recordstorebot/internal/data"
	"recordstorebot/internal/engine"
	"recordstorebot/internal/gateway"
	"recordstorebot/internal/logger"
	"recordstorebot/internal/reports"
)

type App struct {
	addr          string
	mux           *http.ServeMux
	connections   sync.WaitGroup
	totalRequests int64
}

func main() {
	// Step 1: Setup configuration first
	config.LoadEnv()
	config.ConfigurePaths()

	// Step 2: Setup logging
	loggerConfig := config.LoggerConfig()
	if err := logger.SetupLogger(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Only NOW is logging safe to use!
	logger.LogInfo("Environment and paths loaded. Logger ready.")
	config.LogCurrentEnvironment()

	// Step 3: Load credentials
	if err := config.LoadDiscogsConfig(); err != nil {
		logger.LogFatal("Failed to load Discogs config: %v", err)
	}
	if err := config.LoadAuthConfig(); err != nil {
		logger.LogFatal("Failed to load auth config: %v", err)
	}

	// Step 4: Open the database
	if err := data.InitDB(config.DBPath()); err != nil {
		logger.LogFatal("Failed to open database: %v", err)
	}
	defer data.CloseDB()

	if err := data.CreateTables(); err != nil {
		logger.LogFatal("Failed to create tables: %v", err)
	}
	logger.LogInfo("Database ready at %s", config.DBPath())

	// Step 5: Wire services
	inventoryRepo := data.NewInventoryRepository()
	salesRepo := data.NewSalesRepository()
	sessionRepo := data.NewSessionRepository()

	authManager := auth.NewManager(sessionRepo, config.BotPassword(), config.SessionTimeout())
	discogsClient := catalog.NewClient(config.DiscogsToken())
	flowEngine := engine.New(inventoryRepo, salesRepo, discogsClient, config.LowStockThreshold())
	reportService := reports.NewService(salesRepo)
	chatGateway := gateway.New(flowEngine, authManager, inventoryRepo, reportService, config.LowStockThreshold())

	// Step 6: Start background tasks
	go authManager.CleanExpiredSessions(time.Minute * 5)
	cleanup.StartCleanupRoutine(sessionRepo, inventoryRepo)

	// Step 7: Run server
	app := &App{
		addr: serverAddress(),
		mux:  routes(chatGateway),
	}
	app.Run()
}

// serverAddress builds the server address from environment variables
func serverAddress() string {
	host := os.Getenv("SERVER_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "5061"
	}
	return host + ":" + port
}

// routes sets up all routes
func routes(chatGateway *gateway.Gateway) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/api/update", gateway.APIMiddleware(chatGateway.UpdateHandler))

	return mux
}

// Run starts the HTTP server
func (a *App) Run() {
	server := &http.Server{
		Addr:         a.addr,
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a separate goroutine
	go func() {
		logger.LogInfo("Starting server on %s", a.addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogFatal("Server failed: %v", err)
		}
	}()

	// Wait for a shutdown signal
	<-stop
	logger.LogInfo("Shutdown signal received")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server gracefully
	if err := server.Shutdown(ctx); err != nil {
		logger.LogError("Server shutdown error: %v", err)
	} else {
		logger.LogInfo("Server shut down gracefully")
	}

	// Wait for active connections to finish
	logger.LogInfo("Waiting for active connections to finish...")
	a.connections.Wait()
	logger.LogInfo("All connections closed. Total requests handled: %d", atomic.LoadInt64(&a.totalRequests))
}

// Handler assembles all middleware around the main mux
func (a *App) Handler() http.Handler {
	var handler http.Handler = a.mux

	handler = a.trackConnections(handler)
	handler = withTimeout(handler, 15*time.Second)

	return handler
}

// Middleware: timeout handler
func withTimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.TimeoutHandler(h, timeout, "Request timed out")
}

// Middleware: track active connections and total requests
func (a *App) trackConnections(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.connections.Add(1)
		atomic.AddInt64(&a.totalRequests, 1)
		defer a.connections.Done()

		h.ServeHTTP(w, r)
	})
}
