package control

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"voice-companion/internal/domain"
)

// Controller is the conversation surface exposed over HTTP.
type Controller interface {
	Snapshot() domain.View
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error
	Regenerate(ctx context.Context) error
	Replay() error
	Back()
}

// Server exposes the conversation as a small JSON API plus a websocket
// event stream.
type Server struct {
	addr        string
	authToken   string
	ctrl        Controller
	hub         *Hub
	logger      *slog.Logger
	rateLimiter *RateLimiter
	router      chi.Router

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	running  bool

	// bg scopes recordings and pipelines started over HTTP. It outlives
	// requests and is replaced on every Start.
	bg       context.Context
	cancelBg context.CancelFunc
	inflight sync.WaitGroup
}

func NewServer(addr, authToken string, ratePerMinute int, ctrl Controller, hub *Hub, logger *slog.Logger) *Server {
	if ratePerMinute <= 0 {
		ratePerMinute = 30
	}
	bg, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:        addr,
		authToken:   authToken,
		ctrl:        ctrl,
		hub:         hub,
		logger:      logger,
		rateLimiter: NewRateLimiter(ratePerMinute, time.Minute),
		bg:          bg,
		cancelBg:    cancel,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// No auth or rate limiting on health check
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Use(s.authenticate)

		api.Get("/state", s.handleState)
		api.Get("/events", s.handleEvents)

		api.Group(func(cmd chi.Router) {
			cmd.Use(s.rateLimiter.Middleware)
			cmd.Post("/mic", s.handleMic)
			cmd.Post("/stop", s.handleStop)
			cmd.Post("/regenerate", s.handleRegenerate)
			cmd.Post("/replay", s.handleReplay)
			cmd.Post("/back", s.handleBack)
		})
	})

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if s.bg.Err() != nil {
		s.bg, s.cancelBg = context.WithCancel(context.Background())
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		s.logger.Info("control API starting", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("control API error", "error", err)
		}
	}()

	s.running = true
	return nil
}

// Addr reports the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop() error {
	s.mu.Lock()
	server := s.server
	running := s.running
	cancelBg := s.cancelBg
	s.running = false
	s.mu.Unlock()

	cancelBg()
	s.hub.Close()
	defer s.inflight.Wait()

	if running && server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	return nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
				s.logger.Warn("unauthorized control request", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				RespondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("control request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	RespondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": running,
		"clients": s.hub.Clients(),
		"stage":   s.ctrl.Snapshot().Stage,
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	RespondJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.hub.Serve(w, r, s.ctrl.Snapshot())
}

func (s *Server) handleMic(w http.ResponseWriter, r *http.Request) {
	// Recording outlives the request; it ends on /stop or /back.
	if err := s.ctrl.StartRecording(s.lifetime()); err != nil {
		s.respondPipelineError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	if s.ctrl.Snapshot().Stage != domain.StageRecording {
		s.respondPipelineError(w, domain.ErrInvalidTransition)
		return
	}
	s.background("stop", s.ctrl.StopRecording)
	RespondJSON(w, http.StatusAccepted, map[string]string{"status": "processing"})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, _ *http.Request) {
	view := s.ctrl.Snapshot()
	if view.Stage != domain.StageResponded && view.Stage != domain.StageError {
		s.respondPipelineError(w, domain.ErrInvalidTransition)
		return
	}
	s.background("regenerate", s.ctrl.Regenerate)
	RespondJSON(w, http.StatusAccepted, map[string]string{"status": "processing"})
}

func (s *Server) handleReplay(w http.ResponseWriter, _ *http.Request) {
	if err := s.ctrl.Replay(); err != nil {
		s.respondPipelineError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleBack(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.Back()
	RespondJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) lifetime() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bg
}

func (s *Server) background(op string, fn func(context.Context) error) {
	ctx := s.lifetime()
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := fn(ctx); err != nil && !errors.Is(err, domain.ErrStaleSession) {
			s.logger.Warn("control command failed", "op", op, "error", err)
		}
	}()
}

func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrAlreadyRecording):
		status = http.StatusConflict
	case domain.KindOf(err) == domain.ErrorPermissionDenied:
		status = http.StatusForbidden
	case domain.KindOf(err) == domain.ErrorNetwork:
		status = http.StatusBadGateway
	}
	RespondError(w, status, err.Error())
}
