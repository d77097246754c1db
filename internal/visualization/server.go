package visualization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nvandessel/firstmover/internal/constants"
	"github.com/nvandessel/firstmover/internal/driver"
	"github.com/nvandessel/firstmover/internal/logging"
	"github.com/nvandessel/firstmover/internal/observability"
	"github.com/nvandessel/firstmover/internal/ratelimit"
	"github.com/nvandessel/firstmover/internal/simulation"
)

// Server serves the live dashboard, the JSON control API and the websocket
// snapshot stream for one driver.
type Server struct {
	driver   *driver.Driver
	limiters ratelimit.ToolLimiters
	logger   *slog.Logger
	hub      *Hub
	metrics  *observability.Metrics

	unsubscribe []func()

	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the operational logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLimiters replaces the default control endpoint limits.
func WithLimiters(l ratelimit.ToolLimiters) ServerOption {
	return func(s *Server) {
		s.limiters = l
	}
}

// WithMetrics records driver updates in m and serves them at GET /metrics.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a dashboard server for d and starts relaying driver
// updates to websocket clients. Call Close to stop relaying.
func NewServer(d *driver.Driver, opts ...ServerOption) *Server {
	s := &Server{
		driver:   d,
		limiters: ratelimit.NewToolLimiters(),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger)
	s.unsubscribe = append(s.unsubscribe, d.Subscribe(func(u driver.Update) {
		if err := s.hub.Broadcast(streamFrame(u.Snapshot)); err != nil {
			s.logger.Warn("broadcast failed", "error", err)
		}
	}))
	if s.metrics != nil {
		s.unsubscribe = append(s.unsubscribe, d.Subscribe(s.metrics.Observe))
	}
	return s
}

// streamFrame bounds the history sent per frame.
func streamFrame(snap simulation.Snapshot) simulation.Snapshot {
	if n := len(snap.History); n > constants.MaxRenderedHistory {
		snap.History = snap.History[n-constants.MaxRenderedHistory:]
	}
	return snap
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routing for all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/history.csv", s.handleHistoryCSV)
	mux.Handle("POST /api/toggle", ratelimit.Middleware(s.limiters, "sim_toggle", http.HandlerFunc(s.handleToggle)))
	mux.Handle("POST /api/reset", ratelimit.Middleware(s.limiters, "sim_reset", http.HandlerFunc(s.handleReset)))
	mux.HandleFunc("GET /ws", s.handleWS)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

// ListenAndServe listens on addr (port 0 picks a free port) and blocks until
// the context is cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = constants.DefaultServerAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	s.logger.Info("dashboard listening", "addr", s.Addr())

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops relaying driver updates and disconnects websocket clients.
func (s *Server) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
	s.hub.Close()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	html, err := RenderHTML(streamFrame(s.driver.Engine().Snapshot()), true)
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.driver.Engine().Snapshot())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.driver.Engine().Summary()
	if errors.Is(err, simulation.ErrNotYetComplete) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	snap := s.driver.Engine().Snapshot()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=win_rates_seed%d.csv", snap.Seed))
	if err := WriteHistoryCSV(w, snap.History); err != nil {
		s.logger.Warn("csv export failed", "error", err)
	}
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.driver.Toggle()
	writeJSON(w, http.StatusOK, s.driver.Engine().Snapshot())
}

// handleReset restarts the run, with the given seed when ?seed= is present.
// A malformed seed is rejected with 400 and the run is left untouched.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("seed") {
		if _, err := s.driver.SetSeed(r.URL.Query().Get("seed")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		s.driver.Reset()
	}
	writeJSON(w, http.StatusOK, s.driver.Engine().Snapshot())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, streamFrame(s.driver.Engine().Snapshot()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
