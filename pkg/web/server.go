// Package web serves the directory API, the status stream and the static UI.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/ritzau/org-directory/pkg/loader"
	"github.com/ritzau/org-directory/pkg/logging"
	"github.com/ritzau/org-directory/pkg/pubsub"
	"github.com/ritzau/org-directory/pkg/spreadsheet"
	"github.com/ritzau/org-directory/pkg/store"
)

//go:embed static/*
var staticFiles embed.FS

var log = logging.New("web")

// Version is reported by the health endpoint
const Version = "3.1.0"

// Options configures the server
type Options struct {
	UploadMaxBytes  int64               // Largest accepted upload
	Parse           spreadsheet.Options // Enrichment applied to uploaded sheets
	CORSOrigins     []string            // Allowed origins, "*" for any
	Metrics         bool                // Serve /metrics and record request metrics
	Representatives []string            // Reported by /api/system-info
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	handler   http.Handler
	store     *store.Store
	loader    *loader.Loader
	publisher pubsub.Publisher
	opts      Options
	startedAt time.Time
}

// NewServer creates a server answering from st. The loader serves sync and
// upload requests and may be nil, in which case those endpoints return 503.
func NewServer(st *store.Store, ld *loader.Loader, publisher pubsub.Publisher, opts Options) *Server {
	if opts.UploadMaxBytes <= 0 {
		opts.UploadMaxBytes = 16 << 20
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{
		router:    mux.NewRouter(),
		store:     st,
		loader:    ld,
		publisher: publisher,
		opts:      opts,
		startedAt: time.Now(),
	}

	if opts.Metrics {
		st.OnReplace(observeSnapshot)
		observeSnapshot(st.Snapshot())
	}

	s.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", logging.RequestIDHeader},
		ExposedHeaders: []string{logging.RequestIDHeader},
	})
	s.handler = c.Handler(logging.RequestIDMiddleware(s.router))
	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) setupRoutes() {
	if s.opts.Metrics {
		s.router.Use(instrument)
		s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// SSE subscription endpoint
	s.router.HandleFunc("/api/subscribe/directory", s.handleSubscribeDirectory).Methods("GET")
	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")

	// Queries
	s.router.HandleFunc("/api/search", s.handleSearch).Methods("GET")
	s.router.HandleFunc("/api/hierarchy", s.handleForest).Methods("GET")
	s.router.HandleFunc("/api/hierarchy/{name}", s.handleHierarchy).Methods("GET")
	s.router.HandleFunc("/api/map-data/{name}", s.handleMapData).Methods("GET")
	s.router.HandleFunc("/api/filters", s.handleFilters).Methods("GET")
	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/api/cycles", s.handleCycles).Methods("GET")
	s.router.HandleFunc("/api/suggest", s.handleSuggest).Methods("GET")

	// Loading
	s.router.HandleFunc("/api/sync", s.handleSync).Methods("POST")
	s.router.HandleFunc("/api/upload", s.handleUpload).Methods("POST")

	// Structure edits
	s.router.HandleFunc("/api/employees", s.handleAddEmployee).Methods("POST")
	s.router.HandleFunc("/api/employees/{name}/manager", s.handleChangeManager).Methods("PUT")

	// Connection log
	s.router.HandleFunc("/api/connections", s.handleListConnections).Methods("GET")
	s.router.HandleFunc("/api/connections", s.handleAddConnection).Methods("POST")
	s.router.HandleFunc("/api/add-connection", s.handleAddConnection).Methods("POST")

	s.router.HandleFunc("/api/system-info", s.handleSystemInfo).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// Start serves on port until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with ctx so streaming handlers return on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
