package health

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cowmatch-hq/solver/pkg/circuitbreaker"
	"github.com/cowmatch-hq/solver/pkg/venues"
)

// Server represents a health check HTTP server
type Server struct {
	port            string
	catalog         *venues.Catalog
	circuitBreakers map[int]*circuitbreaker.CircuitBreaker
	metricsAPIKey   string
}

// NewServer creates a new health check server
func NewServer(port string, catalog *venues.Catalog, circuitBreakers map[int]*circuitbreaker.CircuitBreaker) *Server {
	return &Server{
		port:            port,
		catalog:         catalog,
		circuitBreakers: circuitBreakers,
		metricsAPIKey:   os.Getenv("METRICS_API_KEY"),
	}
}

// metricsAuthMiddleware is a middleware that checks for a valid API key
func (s *Server) metricsAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if no API key is configured
		if s.metricsAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Get API key from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		// Check if the header has the correct format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		// Validate API key
		if parts[1] != s.metricsAPIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start starts the health check server
func (s *Server) Start() {
	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness check. The solver is ready as soon as it is running; an empty
	// venue snapshot degrades to CoW-only matching instead of refusing work.
	http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ready"))
	})

	// Solver status endpoint
	http.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"venues": map[string]interface{}{
				"size":        s.catalog.Size(),
				"age_seconds": int(s.catalog.Age().Seconds()),
				"stale":       s.catalog.Stale(),
			},
		}

		circuits := make(map[string]interface{})
		for chainID, cb := range s.circuitBreakers {
			circuitStatus := "closed"
			if cb.IsOpen() {
				circuitStatus = "open"
			}
			failureCount, lastFailure, _, threshold := cb.GetState()
			circuits[fmt.Sprintf("chain_%d", chainID)] = map[string]interface{}{
				"circuit":       circuitStatus,
				"failure_count": failureCount,
				"last_failure":  lastFailure,
				"threshold":     threshold,
			}
		}
		status["circuit_breakers"] = circuits

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding status JSON: %v", err)
		}
	})

	// Circuit breaker admin control endpoint
	http.HandleFunc("/circuit/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		chainIDStr := r.URL.Query().Get("chain")
		if chainIDStr == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("Missing chain parameter"))
			return
		}

		chainID, err := strconv.Atoi(chainIDStr)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("Invalid chain ID"))
			return
		}

		cb, ok := s.circuitBreakers[chainID]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(fmt.Sprintf("No circuit breaker for chain %d", chainID)))
			return
		}

		cb.Reset()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fmt.Sprintf("Circuit breaker for chain %d reset", chainID)))
	})

	// Expose Prometheus metrics with API key authentication
	http.Handle("/metrics", s.metricsAuthMiddleware(promhttp.Handler()))

	log.Printf("Starting health and metrics server on port %s", s.port)
	if err := http.ListenAndServe(":"+s.port, nil); err != nil {
		log.Printf("Health server error: %v", err)
	}
}
