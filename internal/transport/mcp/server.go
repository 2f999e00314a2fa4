package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/log"
)

type TransportType string

const (
	TransportOff   TransportType = "off"
	TransportStdio TransportType = "stdio"
	TransportHTTP  TransportType = "http"
)

const (
	SearchToolName   = "search_docs"
	maxSearchResults = 50
)

type Searcher interface {
	Search(ctx context.Context, query string, k int, extension string) ([]core.SearchMatch, error)
}

// Server exposes document search as an MCP tool. It implements srv.Service.
type Server struct {
	mcp            *mcpserver.MCPServer
	transport      TransportType
	addr           string
	searcher       Searcher
	defaultResults int

	mu     sync.Mutex
	http   *mcpserver.StreamableHTTPServer
	cancel context.CancelFunc
}

func NewServer(transport TransportType, addr string, searcher Searcher, defaultResults int) (*Server, error) {
	switch transport {
	case TransportStdio, TransportHTTP:
	default:
		return nil, fmt.Errorf("unsupported mcp transport: %s", transport)
	}
	if defaultResults <= 0 {
		defaultResults = 4
	}

	s := &Server{
		mcp: mcpserver.NewMCPServer(core.TuskName, core.TuskVersion,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
		transport:      transport,
		addr:           addr,
		searcher:       searcher,
		defaultResults: defaultResults,
	}
	s.mcp.AddTool(searchTool(), s.handleSearch)

	return s, nil
}

func searchTool() mcpproto.Tool {
	return mcpproto.NewTool(SearchToolName,
		mcpproto.WithDescription("Search indexed documents by meaning and return the best matching snippets."),
		mcpproto.WithString("queryMessage",
			mcpproto.Required(),
			mcpproto.Description("What to search for"),
		),
		mcpproto.WithNumber("maxResults",
			mcpproto.Description("Number of snippets to return"),
		),
		mcpproto.WithString("extension",
			mcpproto.Description("Only return documents with this file extension, e.g. go or md"),
		),
	)
}

func (s *Server) handleSearch(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	query, err := req.RequireString("queryMessage")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	k := req.GetInt("maxResults", s.defaultResults)
	if k <= 0 || k > maxSearchResults {
		return mcpproto.NewToolResultError(fmt.Sprintf("maxResults must be between 1 and %d", maxSearchResults)), nil
	}

	matches, err := s.searcher.Search(ctx, query, k, req.GetString("extension", ""))
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("tool", SearchToolName).Msg("tool call failed")
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(map[string]any{"matches": matches})
	if err != nil {
		return nil, fmt.Errorf("failed to encode matches: %w", err)
	}
	return mcpproto.NewToolResultText(string(data)), nil
}

func (s *Server) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	switch s.transport {
	case TransportStdio:
		sctx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.cancel = cancel
		s.mu.Unlock()

		logger.Info().Msg("starting mcp server on stdio")
		stdio := mcpserver.NewStdioServer(s.mcp)
		if err := stdio.Listen(sctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil

	default:
		httpSrv := mcpserver.NewStreamableHTTPServer(s.mcp)
		s.mu.Lock()
		s.http = httpSrv
		s.mu.Unlock()

		logger.Info().Str("addr", s.addr).Msg("starting mcp server on http")
		if err := httpSrv.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
