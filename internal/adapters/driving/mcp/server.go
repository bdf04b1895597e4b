package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// Version is the MCP server version.
const Version = "0.1.0"

// recentOutcomes bounds how many watch outcomes watch_status reports.
const recentOutcomes = 20

// Server is the MCP server for sorta.
type Server struct {
	ports  *Ports
	server *mcp.Server
	log    *zap.Logger

	mu     sync.Mutex
	runCtx context.Context
	recent []driving.Outcome
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "sorta",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, nil),
		log:    zap.NewNop(),
		runCtx: context.Background(),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// SetLogger sets the structured logger.
func (s *Server) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	s.setRunContext(ctx)
	defer s.stopWatch()
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	s.setRunContext(ctx)
	defer s.stopWatch()

	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// setRunContext sets the context watch sessions process files under.
func (s *Server) setRunContext(ctx context.Context) {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()
}

func (s *Server) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runCtx
}

func (s *Server) stopWatch() {
	if s.ports.Watch != nil {
		s.ports.Watch.Stop()
	}
}

// record keeps the newest watch outcomes for watch_status.
func (s *Server) record(out driving.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, out)
	if len(s.recent) > recentOutcomes {
		s.recent = s.recent[len(s.recent)-recentOutcomes:]
	}
}

// recentCopy returns the recorded outcomes, newest first.
func (s *Server) recentCopy() []driving.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]driving.Outcome, len(s.recent))
	for i, o := range s.recent {
		out[len(s.recent)-1-i] = o
	}
	return out
}
