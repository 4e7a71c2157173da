// Package web provides the HTTP server and JSON handlers for the SFA mobile API.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evcraddock/sfa-backend/internal/auth"
	"github.com/evcraddock/sfa-backend/internal/catalog"
	"github.com/evcraddock/sfa-backend/internal/customer"
	"github.com/evcraddock/sfa-backend/internal/logging"
	"github.com/evcraddock/sfa-backend/internal/release"
	"github.com/evcraddock/sfa-backend/internal/visit"
)

const shutdownTimeout = 10 * time.Second

// Deps are the services the server routes requests to.
type Deps struct {
	Coordinator *visit.Coordinator
	Visits      *visit.Repository
	Catalog     *catalog.Repository
	Customers   *customer.Repository
	Releases    *release.Repository
	Users       *auth.UserStore
	Tokens      *auth.TokenIssuer
	// Gatherer backs /metrics; nil uses the default prometheus registry.
	Gatherer prometheus.Gatherer
}

// Server is the API HTTP server.
type Server struct {
	coordinator *visit.Coordinator
	visits      *visit.Repository
	catalog     *catalog.Repository
	customers   *customer.Repository
	releases    *release.Repository
	users       *auth.UserStore
	tokens      *auth.TokenIssuer
	limiter     *auth.RateLimiter
	mux         *http.ServeMux
	handler     http.Handler
}

// NewServer creates an API server over the given services.
func NewServer(deps Deps) (*Server, error) {
	switch {
	case deps.Coordinator == nil:
		return nil, errors.New("visit coordinator is required")
	case deps.Visits == nil, deps.Catalog == nil, deps.Customers == nil, deps.Releases == nil:
		return nil, errors.New("repositories are required")
	case deps.Users == nil || deps.Tokens == nil:
		return nil, errors.New("user store and token issuer are required")
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		coordinator: deps.Coordinator,
		visits:      deps.Visits,
		catalog:     deps.Catalog,
		customers:   deps.Customers,
		releases:    deps.Releases,
		users:       deps.Users,
		tokens:      deps.Tokens,
		limiter:     auth.NewRateLimiter(),
		mux:         http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("POST /login", s.handleLogin)

	s.mux.HandleFunc("GET /FEATURE", s.handleFeatures)
	s.mux.HandleFunc("GET /DETAIL_FEATURE", s.handleDetails)
	s.mux.HandleFunc("GET /SUBDETAIL_FEATURE", s.handleSubDetails)
	s.mux.HandleFunc("GET /DETAIL_WITH_SUB/{id}", s.handleDetailsWithSubs)

	s.mux.HandleFunc("POST /SUBMIT_VISIT", s.handleSubmitVisit)
	s.mux.HandleFunc("GET /visits/{id}", s.handleGetVisit)

	s.mux.HandleFunc("POST /update-location", s.handleUpdateLocation)

	s.mux.HandleFunc("GET /api/apk-latest", s.handleLatestVersion)
	s.mux.HandleFunc("GET /api/admin/apk-versions", s.handleListVersions)
	s.mux.HandleFunc("POST /api/admin/apk-versions", s.handleAddVersion)
	s.mux.HandleFunc("DELETE /api/admin/apk-versions/{id}", s.handleDeleteVersion)

	s.handler = logging.RequestLogger(auth.RequireBearer(s.tokens, s.mux))

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting API server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
