// Package diagnostics serves the optional loopback HTTP endpoint exposing
// metrics, recent shell events and a live event stream.
package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/websocket"

	"github.com/rennerdo30/taqyon/internal/journal"
	"github.com/rennerdo30/taqyon/internal/logging"
	"github.com/rennerdo30/taqyon/internal/metrics"
	"github.com/rennerdo30/taqyon/internal/util"
	"github.com/rennerdo30/taqyon/internal/version"
)

// DefaultEventLimit is the number of journal entries returned by
// /debug/events when no limit is given.
const DefaultEventLimit = 100

// Config holds diagnostics server configuration.
type Config struct {
	Listen  string
	Metrics *metrics.Metrics
	Journal *journal.Journal
	State   func() interface{} // Returns a JSON-serialisable view of shell state
}

// Server is the diagnostics HTTP server.
type Server struct {
	cfg       Config
	hub       *Hub
	startTime time.Time
	logger    *slog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New validates cfg and creates a server. The listen address must be a
// loopback address with an explicit port.
func New(cfg Config) (*Server, error) {
	if !util.IsLoopbackAddress(cfg.Listen) {
		return nil, fmt.Errorf("%w: diagnostics listen address %q is not loopback", util.ErrInvalidConfig, cfg.Listen)
	}
	if _, port, err := util.SplitHostPort(cfg.Listen); err != nil || port <= 0 {
		return nil, fmt.Errorf("%w: diagnostics listen address %q needs a port", util.ErrInvalidConfig, cfg.Listen)
	}
	if cfg.Journal == nil {
		cfg.Journal = journal.New(journal.DefaultCapacity)
	}

	return &Server{
		cfg:       cfg,
		hub:       NewHub(),
		startTime: time.Now(),
		logger:    logging.WithComponent("diagnostics"),
	}, nil
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Journal returns the journal the server reads from.
func (s *Server) Journal() *journal.Journal {
	return s.cfg.Journal
}

// Publish records entry in the journal and pushes it to websocket clients.
func (s *Server) Publish(entry journal.Entry) journal.Entry {
	entry = s.cfg.Journal.Record(entry)
	s.hub.Broadcast(EventJournal, entry)
	return entry
}

// Router returns the HTTP router for the diagnostics endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Handle("/debug/ws", websocket.Handler(s.hub.ServeWS))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/healthz", s.handleHealth)
		r.Get("/version", s.handleVersion)
		if s.cfg.Metrics != nil {
			r.Handle("/metrics", s.cfg.Metrics.Handler())
		}
		r.Get("/debug/events", s.handleEvents)
		r.Get("/debug/state", s.handleState)
	})

	return r
}

// Start begins listening and serving in the background. The server shuts
// down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.hub.Run(ctx)

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("diagnostics server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(shutdownCtx)
	}()

	s.logger.Info("diagnostics server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.hub.close()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown diagnostics server: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		ctx := logging.WithContext(r.Context(), s.logger)
		ctx = logging.ContextWith(ctx, "request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.FromContext(ctx).Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.GetInfo())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := DefaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			logging.FromContext(r.Context()).Debug("rejected events limit", "limit", v)
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	entries := s.cfg.Journal.GetLast(limit)
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events":   entries,
		"count":    len(entries),
		"total":    s.cfg.Journal.Count(),
		"capacity": s.cfg.Journal.Capacity(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if s.cfg.State == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error": "state not available",
		})
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.State())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
