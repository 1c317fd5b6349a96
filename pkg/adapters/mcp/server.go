package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// PagesURI is the resource listing the available pages.
const PagesURI = "arbor://pages"

// RenderArgs are the arguments of the render_page tool.
type RenderArgs struct {
	Page      string `json:"page" jsonschema_description:"The page to render"`
	SessionID string `json:"session_id" jsonschema_description:"The session whose feedback is rendered"`
}

// ReportArgs are the arguments of the report tool.
type ReportArgs struct {
	SessionID string `json:"session_id"`
	Level     string `json:"level"`
	Text      string `json:"text"`
}

// ReportResult acknowledges a report.
type ReportResult struct {
	SessionID string       `json:"session_id"`
	Level     domain.Level `json:"level"`
}

// PageArgs names a page.
type PageArgs struct {
	Page string `json:"page"`
}

// PagesResult lists page names.
type PagesResult struct {
	Pages []string `json:"pages" jsonschema_description:"Available page names, sorted"`
}

// Server wraps the Arbor Engine and exposes it as an MCP Server.
type Server struct {
	engine    ports.PageEngine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.PageEngine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP endpoints over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the pages that can be rendered."),
		mcp.WithOutputSchema[PagesResult](),
	), mcp.NewStructuredToolHandler(s.handleListPages))

	s.mcpServer.AddTool(mcp.NewTool("render_page",
		mcp.WithDescription("Render a page for a session. Pending feedback of the session is displayed and consumed."),
		mcp.WithString("page", mcp.Required(), mcp.Description("The page to render")),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session id")),
		mcp.WithOutputSchema[domain.View](),
	), mcp.NewStructuredToolHandler(s.handleRenderPage))

	s.mcpServer.AddTool(mcp.NewTool("report",
		mcp.WithDescription("Queue a feedback message for the next render of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The message text")),
		mcp.WithString("level",
			mcp.Description("The message level (default info)"),
			mcp.Enum("debug", "info", "success", "warning", "error", "fatal"),
		),
		mcp.WithOutputSchema[ReportResult](),
	), mcp.NewStructuredToolHandler(s.handleReport))

	s.mcpServer.AddTool(mcp.NewTool("inspect_page",
		mcp.WithDescription("Describe the component tree of a page without rendering it."),
		mcp.WithString("page", mcp.Required(), mcp.Description("The page to inspect")),
		mcp.WithOutputSchema[domain.NodeView](),
	), mcp.NewStructuredToolHandler(s.handleInspectPage))
}

func (s *Server) handleListPages(ctx context.Context, _ mcp.CallToolRequest, _ struct{}) (PagesResult, error) {
	pages, err := s.engine.Pages(ctx)
	if err != nil {
		return PagesResult{}, fmt.Errorf("list pages failed: %w", err)
	}
	return PagesResult{Pages: pages}, nil
}

func (s *Server) handleRenderPage(ctx context.Context, _ mcp.CallToolRequest, args RenderArgs) (domain.View, error) {
	if args.Page == "" || args.SessionID == "" {
		return domain.View{}, errors.New("page and session_id are required")
	}
	view, err := s.engine.Render(ctx, args.SessionID, args.Page)
	if err != nil {
		s.logger.Error("MCP render failed", "page", args.Page, "session_id", args.SessionID, "error", err)
		return domain.View{}, fmt.Errorf("render failed: %w", err)
	}
	return *view, nil
}

func (s *Server) handleReport(ctx context.Context, _ mcp.CallToolRequest, args ReportArgs) (ReportResult, error) {
	text := strings.TrimSpace(args.Text)
	if args.SessionID == "" || text == "" {
		return ReportResult{}, errors.New("session_id and text are required")
	}
	level := domain.LevelInfo
	if args.Level != "" {
		parsed, err := domain.ParseLevel(args.Level)
		if err != nil {
			return ReportResult{}, err
		}
		level = parsed
	}
	if err := s.engine.Report(ctx, args.SessionID, level, text); err != nil {
		return ReportResult{}, fmt.Errorf("report failed: %w", err)
	}
	return ReportResult{SessionID: args.SessionID, Level: level}, nil
}

func (s *Server) handleInspectPage(ctx context.Context, _ mcp.CallToolRequest, args PageArgs) (domain.NodeView, error) {
	view, err := s.engine.Inspect(ctx, args.Page)
	if err != nil {
		return domain.NodeView{}, fmt.Errorf("inspect failed: %w", err)
	}
	return *view, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(PagesURI, "Available pages",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		pages, err := s.engine.Pages(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list pages: %w", err)
		}
		jsonBytes, err := json.Marshal(pages)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      PagesURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
