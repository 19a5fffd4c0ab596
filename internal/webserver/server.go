package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nantokaworks/betboard/internal/announce"
	"github.com/nantokaworks/betboard/internal/draft"
	"github.com/nantokaworks/betboard/internal/eventstore"
	"github.com/nantokaworks/betboard/internal/shared/logger"
	"go.uber.org/zap"
)

var (
	httpServer *http.Server

	store        *eventstore.Store
	formatter    *announce.Formatter
	draftManager = draft.NewManager()
)

// Configure wires the engine and the message formatter into the handlers.
// Must run before StartWebServer.
func Configure(s *eventstore.Store, f *announce.Formatter) {
	store = s
	formatter = f
}

// corsMiddleware adds CORS headers to HTTP handlers
func corsMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID, X-User-Name")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler(w, r)
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Event lifecycle
	mux.HandleFunc("/api/events", corsMiddleware(handleEvents))
	mux.HandleFunc("/api/events/", corsMiddleware(handleEventByPath))

	// Dashboard and identity probe (open to anyone)
	mux.HandleFunc("/api/stats", corsMiddleware(handleStats))
	mux.HandleFunc("/api/whoami", corsMiddleware(handleWhoami))
	mux.HandleFunc("/api/version", corsMiddleware(handleVersion))

	// Operator management
	mux.HandleFunc("/api/operators", corsMiddleware(handleOperators))
	mux.HandleFunc("/api/operators/", corsMiddleware(handleOperatorByPath))

	// Multi-step event creation
	mux.HandleFunc("/api/drafts", corsMiddleware(handleDrafts))
	mux.HandleFunc("/api/drafts/input", corsMiddleware(handleDraftInput))

	// Channel announcement stream
	mux.HandleFunc("/ws", handleWS)
}

func StartWebServer(port int) error {
	if store == nil {
		return fmt.Errorf("webserver not configured")
	}

	StartWSHub()

	mux := http.NewServeMux()
	registerRoutes(mux)

	httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Web server stopped unexpectedly", zap.Error(err))
		}
	}()

	logger.Info("Web server started", zap.Int("port", port))
	return nil
}

// StopWebServer shuts the HTTP server down, letting in-flight requests
// finish.
func StopWebServer() {
	if httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("Web server shutdown error", zap.Error(err))
	}
}
