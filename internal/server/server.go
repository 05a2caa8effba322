// Package server exposes the probability calculator and the game simulator
// over HTTP. Exact calculations are served inline; simulation runs are rate
// limited and may also be watched over a WebSocket that streams progress.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/lox/decksim/internal/simulator"
)

// Server hosts the deck probability API.
type Server struct {
	config   *Config
	logger   *log.Logger
	sim      *simulator.Simulator
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	http     *http.Server
}

// NewServer creates a server for the given configuration.
func NewServer(config *Config, logger *log.Logger) *Server {
	s := &Server{
		config: config,
		logger: logger.WithPrefix("server"),
		sim: simulator.New(simulator.Config{
			Logger:  logger,
			Workers: config.Simulation.Workers,
		}),
		limiter: rate.NewLimiter(rate.Limit(config.Server.RateLimit), config.Server.RateBurst),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.http = &http.Server{
		Addr:    config.ListenAddress(),
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", s.handleHealth)
	r.Route("/probability", func(r chi.Router) {
		r.Post("/hypergeometric", s.handleHypergeometric)
		r.Post("/multivariate", s.handleMultivariate)
		r.Post("/optimal-copies", s.handleOptimalCopies)
	})
	r.Route("/simulation", func(r chi.Router) {
		r.With(s.rateLimit).Post("/run", s.handleSimulationRun)
		r.Get("/watch", s.handleSimulationWatch)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.http.Shutdown(ctx)
}

// Handler returns the route tree without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// rateLimit rejects simulation requests beyond the configured rate. Exact
// probability endpoints are cheap and stay unthrottled.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.logger.Warn("Simulation request rate limited", "remote", r.RemoteAddr)
			writeError(w, http.StatusTooManyRequests, "too many simulation requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSimulationWatch upgrades to a WebSocket, reads a single simulation
// request, and streams progress frames followed by the final result. Closing
// the socket cancels the run.
func (s *Server) handleSimulationWatch(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many simulation requests")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	var req simulationRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(watchFrame{Type: "error", Error: "malformed request"})
		return
	}
	simReq := req.toSimulator()
	if simReq.Iterations > s.config.Simulation.MaxIterations {
		_ = conn.WriteJSON(watchFrame{Type: "error", Error: "iterations exceed the server limit"})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The read pump only watches for the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	progress := make(chan watchFrame, 16)
	sim := simulator.New(simulator.Config{
		Logger:  s.logger,
		Workers: s.config.Simulation.Workers,
		Progress: func(completed, successes int) {
			select {
			case progress <- watchFrame{Type: "progress", Completed: completed, Successes: successes}:
			default: // drop rather than stall the workers
			}
		},
	})

	done := make(chan struct{})
	var res simulator.Result
	var runErr error
	go func() {
		defer close(done)
		res, runErr = sim.Run(ctx, simReq)
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	var latest *watchFrame
	for {
		select {
		case frame := <-progress:
			latest = &frame
		case <-ticker.C:
			if latest != nil {
				if err := conn.WriteJSON(*latest); err != nil {
					cancel()
				}
				latest = nil
			}
		case <-done:
			if runErr != nil {
				_ = conn.WriteJSON(watchFrame{Type: "error", Error: runErr.Error()})
				return
			}
			result := newSimulationResponse(res)
			_ = conn.WriteJSON(watchFrame{Type: "result", Result: &result})
			return
		}
	}
}

// watchFrame is a single message on the watch socket.
type watchFrame struct {
	Type      string              `json:"type"`
	Completed int                 `json:"completed,omitempty"`
	Successes int                 `json:"successes,omitempty"`
	Error     string              `json:"error,omitempty"`
	Result    *simulationResponse `json:"result,omitempty"`
}
