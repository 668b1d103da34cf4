package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

const instructions = `Load a PDF with load_document, then ask about it with ask_document.
Every chunk of the document is sent to the model with the question and the
answers are concatenated in document order. chat talks to the model without
the document.`

// Server exposes one pdfchat session as MCP tools and resources.
// A loaded document stays loaded for later calls.
type Server struct {
	ports  *Ports
	server *mcp.Server

	// mu serialises model calls on the shared session.
	mu      sync.Mutex
	session driving.Session
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:   ports,
		session: ports.Sessions.Create(),
		server: mcp.NewServer(
			&mcp.Implementation{Name: "pdfchat", Version: Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	defer s.end()
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	defer s.end()

	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("MCP server listening on http://%s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// use runs fn with exclusive access to the session.
func (s *Server) use(fn func(driving.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.session)
}

func (s *Server) end() {
	id := s.session.Conversation().ID()
	s.ports.Sessions.End(id)
	logger.Debug("MCP session %s ended", id)
}

// resolveModel picks the model a tool call runs against.
func (s *Server) resolveModel(ctx context.Context, requested string) (string, error) {
	preferred := requested
	if preferred == "" {
		preferred = s.ports.Model
	}
	return s.ports.Models.Resolve(ctx, preferred)
}
