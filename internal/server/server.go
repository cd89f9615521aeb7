// Package server exposes the scanning pipeline and cart over HTTP.
package server

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tavini/pricecart/internal/cart"
	"github.com/tavini/pricecart/internal/orchestrator"
)

// Server handles HTTP requests for scanning and the shopping cart
type Server struct {
	orch      *orchestrator.Orchestrator
	cart      *cart.Cart
	detector  orchestrator.Detector
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(orch *orchestrator.Orchestrator, cartStore *cart.Cart, detector orchestrator.Detector, basicAuth BasicAuth) *Server {
	return NewServerWithMux(orch, cartStore, detector, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(orch *orchestrator.Orchestrator, cartStore *cart.Cart, detector orchestrator.Detector, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		orch:      orch,
		cart:      cartStore,
		detector:  detector,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			// Ensure CORS headers are set before error response
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="PriceCart"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	// Scanning pipeline
	s.mux.HandleFunc("POST /api/scan", s.requireAuth(s.handleScan))
	s.mux.HandleFunc("GET /api/scan/state", s.requireAuth(s.handleScanState))
	s.mux.HandleFunc("POST /api/scan/confirm", s.requireAuth(s.handleScanConfirm))
	s.mux.HandleFunc("POST /api/scan/cancel", s.requireAuth(s.handleScanCancel))

	// Cart
	s.mux.HandleFunc("DELETE /api/cart/items/{id}", s.requireAuth(s.handleRemoveItem))
	s.mux.HandleFunc("POST /api/cart/items", s.requireAuth(s.handleAddItem))
	s.mux.HandleFunc("POST /api/cart/finalize", s.requireAuth(s.handleFinalize))
	s.mux.HandleFunc("GET /api/cart", s.requireAuth(s.handleGetCart))

	// Purchase history
	s.mux.HandleFunc("POST /api/history/{id}/reload", s.requireAuth(s.handleReloadSession))
	s.mux.HandleFunc("GET /api/history", s.requireAuth(s.handleListHistory))
	s.mux.HandleFunc("DELETE /api/history", s.requireAuth(s.handleClearHistory))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	// Wrap the mux with CORS middleware to handle all requests including OPTIONS
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
