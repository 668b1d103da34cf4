// Package httpapi serves the chat and document question-answering API over HTTP.
// Each client works in its own session, identified by the X-Session-ID header.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// SessionHeader carries the client's session id on requests and responses.
const SessionHeader = "X-Session-ID"

// Default limits.
const (
	DefaultMaxUploadBytes = 64 << 20
	DefaultPreviewChars   = domain.DefaultPreviewChars
)

var (
	// ErrMissingModelCatalog is returned when the model catalog is not provided.
	ErrMissingModelCatalog = errors.New("httpapi: model catalog is required")

	// ErrMissingSessionManager is returned when the session manager is not provided.
	ErrMissingSessionManager = errors.New("httpapi: session manager is required")

	// ErrUploadTooLarge is returned when an upload exceeds Config.MaxUploadBytes.
	ErrUploadTooLarge = errors.New("upload too large")
)

// Config holds the server's tunables.
type Config struct {
	// Model is the preferred model when a request names none.
	Model string

	// PreviewChars is how much extracted text a document upload returns.
	PreviewChars int

	// MaxUploadBytes caps the size of an uploaded PDF.
	MaxUploadBytes int64
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	models   driving.ModelCatalog
	sessions driving.SessionManager
	cfg      Config

	// locks serialises requests per session.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewServer creates and configures the HTTP server.
func NewServer(models driving.ModelCatalog, sessions driving.SessionManager, cfg Config) (*Server, error) {
	if models == nil {
		return nil, ErrMissingModelCatalog
	}
	if sessions == nil {
		return nil, ErrMissingSessionManager
	}
	if cfg.PreviewChars <= 0 {
		cfg.PreviewChars = DefaultPreviewChars
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{
		models:   models,
		sessions: sessions,
		cfg:      cfg,
		locks:    make(map[string]*sync.Mutex),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", s.handleListModels)

		r.Post("/sessions", s.handleCreateSession)
		r.Delete("/sessions/{sessionID}", s.handleEndSession)

		r.Post("/document", s.handleLoadDocument)
		r.Post("/document/ask", s.handleAskDocument)

		r.Post("/chat", s.handleChat)
		r.Get("/chat/history", s.handleChatHistory)
	})

	s.router = r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on http://%s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
}

// session returns the caller's session. A request without a session id
// starts a new one; an id the server did not issue is rejected.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (driving.Session, error) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		session := s.sessions.Create()
		w.Header().Set(SessionHeader, session.Conversation().ID())
		return session, nil
	}

	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	w.Header().Set(SessionHeader, id)
	return session, nil
}

// lock serialises work on one session and returns the unlock func.
func (s *Server) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Server) forget(id string) {
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
}

// resolveModel picks the model a request runs against.
func (s *Server) resolveModel(ctx context.Context, requested string) (string, error) {
	preferred := requested
	if preferred == "" {
		preferred = s.cfg.Model
	}
	return s.models.Resolve(ctx, preferred)
}
