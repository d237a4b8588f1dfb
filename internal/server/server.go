package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ironsheep/helmet-detect-mcp/internal/analysis"
	"github.com/ironsheep/helmet-detect-mcp/internal/config"
	"github.com/ironsheep/helmet-detect-mcp/internal/detection"
	"github.com/ironsheep/helmet-detect-mcp/internal/selection"
)

// Name is reported to clients during initialize.
const Name = "helmet-detect-mcp"

// maxLineBytes bounds a single JSON-RPC request line.
const maxLineBytes = 1024 * 1024

// Server handles MCP protocol communication
type Server struct {
	version string
	preview config.PreviewConfig
	logger  *slog.Logger

	detector  *detection.Client
	selection *selection.Manager
	analysis  *analysis.Orchestrator
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New wires a server from configuration. The server owns the selection and
// analysis state it creates; Serve tears both down on exit.
func New(cfg *config.Config, version string, logger *slog.Logger) *Server {
	logger = logger.With("component", "server")

	det := detection.New(
		cfg.Detection.URL,
		cfg.Detection.HealthURL,
		cfg.Detection.TimeoutDuration(),
		logger,
	)
	sel := selection.NewManager(logger)

	return &Server{
		version:   version,
		preview:   cfg.Preview,
		logger:    logger,
		detector:  det,
		selection: sel,
		analysis:  analysis.New(sel, det, logger),
	}
}

// Run serves on stdin and stdout until stdin closes or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited requests from r and writes responses to w.
// Requests are handled one at a time in arrival order.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	encoder := json.NewEncoder(w)
	s.logger.Info("serving", "version", s.version, "detection_url", s.detector.URL())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down", "reason", ctx.Err())
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				s.logger.Info("input closed")
				return nil
			}
			if len(line) == 0 {
				continue
			}

			var req MCPRequest
			if err := json.Unmarshal(line, &req); err != nil {
				s.logger.Warn("failed to parse request", "error", err)
				continue
			}

			resp := s.handleRequest(ctx, &req)
			if resp != nil {
				if err := encoder.Encode(resp); err != nil {
					s.logger.Error("failed to encode response", "error", err)
				}
			}
		}
	}
}

// Close abandons any in-flight analysis and releases the preview. It is
// safe to call more than once.
func (s *Server) Close() {
	s.analysis.Close()
	s.selection.Close()

	stats := s.selection.Stats()
	s.logger.Debug("resources released", "previews_allocated", stats.Allocated, "previews_live", stats.Live)
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    Name,
				"version": s.version,
			},
		},
	}
}
